package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchItem(id int64, name string) string {
	return fmt.Sprintf(`{"id": %d, "name": %q, "full_name": "owner/%s", "stargazers_count": %d, "owner": {"login": "owner", "id": 7, "type": "User"}}`, id, name, name, id*10)
}

func searchPage(items ...string) string {
	return fmt.Sprintf(`{"total_count": %d, "items": [%s]}`, len(items), strings.Join(items, ","))
}

func TestDiscoveryCeilingAcrossPages(t *testing.T) {
	// Five unique items over two pages with ceiling 3 yields exactly 3.
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/repositories", r.URL.Path)
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, searchPage(searchItem(1, "a"), searchItem(2, "b")))
		case "2":
			fmt.Fprint(w, searchPage(searchItem(3, "c"), searchItem(4, "d"), searchItem(5, "e")))
		default:
			fmt.Fprint(w, searchPage())
		}
	})

	config := testConfig(t, server.URL)
	config.GithubApi.PerPage = 2
	config.GithubApi.SearchMaxResults = 100
	worker := NewDiscoveryWorker(nopLogger(t), config, testClient(t, config), NewSeenSet())

	entities, err := worker.Run(context.Background(), DiscoveryTask{Name: "test", FileType: ".env", Ceiling: 3})

	require.NoError(t, err)
	require.Len(t, entities, 3)
	for _, entity := range entities {
		assert.True(t, entity.BasicCompleted)
		assert.NotNil(t, entity.BasicCompletedAt)
		assert.False(t, entity.DetailCompleted)
		assert.Equal(t, ".env", entity.SourceFile)
	}
	assert.Equal(t, int64(1), entities[0].GithubID)
	assert.Equal(t, int64(3), entities[2].GithubID)
}

func TestDiscoveryStopsOnShortPage(t *testing.T) {
	var calls int
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, searchPage(searchItem(1, "a")))
	})

	config := testConfig(t, server.URL)
	config.GithubApi.PerPage = 2
	worker := NewDiscoveryWorker(nopLogger(t), config, testClient(t, config), NewSeenSet())

	entities, err := worker.Run(context.Background(), DiscoveryTask{Name: "test", Ceiling: 100})

	require.NoError(t, err)
	assert.Len(t, entities, 1)
	assert.Equal(t, 1, calls)
}

func TestDiscoverySkipsIdsSeenByOtherTasks(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage(searchItem(1, "a"), searchItem(2, "b")))
	})

	config := testConfig(t, server.URL)
	config.GithubApi.PerPage = 100
	seen := NewSeenSet()
	seen.Add(1)
	worker := NewDiscoveryWorker(nopLogger(t), config, testClient(t, config), seen)

	entities, err := worker.Run(context.Background(), DiscoveryTask{Name: "test", Ceiling: 10})

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, int64(2), entities[0].GithubID)
}

func TestDiscoveryUnprocessableQueryIsSkippedNotFatal(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	config := testConfig(t, server.URL)
	worker := NewDiscoveryWorker(nopLogger(t), config, testClient(t, config), NewSeenSet())

	entities, err := worker.Run(context.Background(), DiscoveryTask{Name: "bad", Ceiling: 10})

	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestDiscoveryRespectsSearchDepthLimit(t *testing.T) {
	var pagesServed int
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		fmt.Fprint(w, searchPage(
			searchItem(int64(pagesServed*2-1), "x"),
			searchItem(int64(pagesServed*2), "y"),
		))
	})

	config := testConfig(t, server.URL)
	config.GithubApi.PerPage = 2
	config.GithubApi.SearchMaxResults = 4
	worker := NewDiscoveryWorker(nopLogger(t), config, testClient(t, config), NewSeenSet())

	entities, err := worker.Run(context.Background(), DiscoveryTask{Name: "deep", Ceiling: 1000})

	require.NoError(t, err)
	assert.Len(t, entities, 4)
	assert.Equal(t, 2, pagesServed)
}
