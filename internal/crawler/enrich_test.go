package crawler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/minhlq/github-harvester/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeLanguages(t *testing.T) {
	main, stats, total := summarizeLanguages(map[string]int64{"A": 300, "B": 100})

	assert.Equal(t, "A", main)
	assert.Equal(t, int64(400), total)

	var pct map[string]float64
	require.NoError(t, json.Unmarshal([]byte(stats), &pct))
	assert.InDelta(t, 75.0, pct["A"], 0.01)
	assert.InDelta(t, 25.0, pct["B"], 0.01)
	assert.InDelta(t, 100.0, pct["A"]+pct["B"], 0.01)
}

func TestSummarizeLanguagesEmpty(t *testing.T) {
	main, stats, total := summarizeLanguages(map[string]int64{})

	assert.Empty(t, main)
	assert.Equal(t, "{}", stats)
	assert.Zero(t, total)
}

func TestEnrichmentMergesAllFetches(t *testing.T) {
	readme := base64.StdEncoding.EncodeToString([]byte("# Hello\nproject readme, set the password in .env"))
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/languages":
			fmt.Fprint(w, `{"Go": 900, "Shell": 100}`)
		case "/repos/owner/repo/contributors":
			fmt.Fprint(w, `[{"login": "alice", "contributions": 50}, {"login": "bob", "contributions": 10}]`)
		case "/repos/owner/repo/commits":
			w.Header().Set("Link", `<https://api.github.com/repositories/1/commits?per_page=1&page=321>; rel="last"`)
			fmt.Fprint(w, `[{"sha": "abc"}]`)
		case "/repos/owner/repo/branches":
			fmt.Fprint(w, `[{"name": "main"}, {"name": "dev"}]`)
		case "/repos/owner/repo/releases":
			fmt.Fprint(w, `[{"tag_name": "v2.1.0"}, {"tag_name": "v2.0.0"}]`)
		case "/repos/owner/repo/readme":
			fmt.Fprintf(w, `{"content": %q, "encoding": "base64"}`, readme)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	config := testConfig(t, server.URL)
	writer := newFakeStore()
	worker := NewEnrichmentWorker(nopLogger(t), config, testClient(t, config), writer)

	ok, err := worker.Run(context.Background(), model.Repo{GithubID: 99, FullName: "owner/repo"})

	require.NoError(t, err)
	assert.True(t, ok)

	fields := writer.updates[99]
	require.NotNil(t, fields)
	assert.Equal(t, "Go", fields["main_language"])
	assert.Equal(t, int64(1000), fields["total_code_bytes"])
	assert.Equal(t, 2, fields["contributors_count"])
	assert.Equal(t, "alice", fields["top_contributor"])
	assert.Equal(t, 321, fields["commits_count"])
	assert.Equal(t, 2, fields["branches_count"])
	assert.Equal(t, 2, fields["releases_count"])
	assert.Equal(t, "v2.1.0", fields["latest_release_tag"])
	assert.Contains(t, fields["readme_excerpt"], "project readme")
	assert.Equal(t, "password", fields["readme_keywords"])
	assert.Equal(t, true, fields["detail_completed"])
	assert.NotNil(t, fields["detail_completed_at"])
}

func TestEnrichmentAllFetchesFailStillMarksComplete(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	config := testConfig(t, server.URL)
	writer := newFakeStore()
	worker := NewEnrichmentWorker(nopLogger(t), config, testClient(t, config), writer)

	ok, err := worker.Run(context.Background(), model.Repo{GithubID: 7, FullName: "owner/gone"})

	require.NoError(t, err)
	assert.True(t, ok)

	fields := writer.updates[7]
	require.NotNil(t, fields)
	// Only the completion marker fields, nothing else was learned.
	assert.Equal(t, true, fields["detail_completed"])
	assert.NotContains(t, fields, "main_language")
	assert.NotContains(t, fields, "contributors_count")
	assert.NotContains(t, fields, "commits_count")
	assert.NotContains(t, fields, "readme_excerpt")
}

func TestEnrichmentPartialSubsetIsMerged(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/owner/repo/languages" {
			fmt.Fprint(w, `{"Rust": 500}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	config := testConfig(t, server.URL)
	writer := newFakeStore()
	worker := NewEnrichmentWorker(nopLogger(t), config, testClient(t, config), writer)

	ok, err := worker.Run(context.Background(), model.Repo{GithubID: 8, FullName: "owner/repo"})

	require.NoError(t, err)
	assert.True(t, ok)

	fields := writer.updates[8]
	assert.Equal(t, "Rust", fields["main_language"])
	assert.NotContains(t, fields, "contributors_count")
	assert.Equal(t, true, fields["detail_completed"])
}

func TestEnrichmentSkipsKeywordsForCleanReadme(t *testing.T) {
	readme := base64.StdEncoding.EncodeToString([]byte("# Hello\na plain readme"))
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/owner/repo/readme" {
			fmt.Fprintf(w, `{"content": %q, "encoding": "base64"}`, readme)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	config := testConfig(t, server.URL)
	writer := newFakeStore()
	worker := NewEnrichmentWorker(nopLogger(t), config, testClient(t, config), writer)

	ok, err := worker.Run(context.Background(), model.Repo{GithubID: 11, FullName: "owner/repo"})

	require.NoError(t, err)
	assert.True(t, ok)

	fields := writer.updates[11]
	assert.Contains(t, fields["readme_excerpt"], "plain readme")
	assert.NotContains(t, fields, "readme_keywords")
}

func TestEnrichmentUpdateFailurePropagates(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	config := testConfig(t, server.URL)
	writer := newFakeStore()
	writer.updateErr = fmt.Errorf("connection lost")
	worker := NewEnrichmentWorker(nopLogger(t), config, testClient(t, config), writer)

	ok, err := worker.Run(context.Background(), model.Repo{GithubID: 9, FullName: "owner/repo"})

	require.Error(t, err)
	assert.False(t, ok)
}
