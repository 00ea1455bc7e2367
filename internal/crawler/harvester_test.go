package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/minhlq/github-harvester/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvesterRunsBothPhasesAndRecordsStats(t *testing.T) {
	server := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search/repositories":
			fmt.Fprint(w, searchPage(searchItem(1, "a"), searchItem(2, "b")))
		case strings.HasSuffix(r.URL.Path, "/languages"):
			fmt.Fprint(w, `{"Go": 100}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	config := testConfig(t, server.URL)
	config.Phase1.Enabled = true
	config.Phase1.FileTypes = []string{".env"}
	config.Phase1.Languages = nil
	config.Phase1.Topics = nil
	config.Phase1.Workers = 1
	config.Phase1.MaxReposPerTask = 10
	config.Phase2.Enabled = true
	config.Phase2.Workers = 1

	logger := nopLogger(t)
	pool, err := credential.NewPool(logger, config)
	require.NoError(t, err)
	api := testClient(t, config)
	st := newFakeStore()
	st.candidates = nil // phase 2 reads the fake store, nothing queued

	harvester := &Harvester{
		Logger: logger,
		Config: config,
		Pool:   pool,
		Api:    api,
		Writer: st,
		Store:  st,
		Seen:   NewSeenSet(),
	}

	require.NoError(t, harvester.Run(context.Background()))

	assert.Len(t, st.savedRows(), 2)
	require.Len(t, st.stats, 1)
	stat := st.stats[0]
	assert.Equal(t, int64(2), stat.Collected)
	assert.Zero(t, stat.Enriched)
	assert.False(t, stat.StartedAt.After(stat.FinishedAt))
}

func TestHarvesterSkipsDisabledPhases(t *testing.T) {
	config := testConfig(t, "http://unused")
	config.Phase1.Enabled = false
	config.Phase2.Enabled = false

	logger := nopLogger(t)
	pool, err := credential.NewPool(logger, config)
	require.NoError(t, err)
	st := newFakeStore()

	harvester := &Harvester{
		Logger: logger,
		Config: config,
		Pool:   pool,
		Writer: st,
		Store:  st,
		Seen:   NewSeenSet(),
	}

	require.NoError(t, harvester.Run(context.Background()))

	assert.Empty(t, st.savedRows())
	require.Len(t, st.stats, 1)
	assert.Zero(t, st.stats[0].Collected)
}
