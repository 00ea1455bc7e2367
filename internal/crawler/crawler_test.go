package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/credential"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/log"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseUrl string) *cfg.Config {
	t.Helper()

	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)

	config.GithubApi.BaseUrl = baseUrl
	config.GithubApi.Tokens = []string{"test-token"}
	config.GithubApi.RequestsPerSecond = 0
	config.GithubApi.RetryBaseDelayMs = 1
	config.GithubApi.MaxRetries = 1
	return config
}

func nopLogger(t *testing.T) log.Logger {
	t.Helper()
	logger, _ := log.NewNopLogger()
	return logger
}

func testClient(t *testing.T, config *cfg.Config) *githubapi.Client {
	t.Helper()

	logger, _ := log.NewNopLogger()
	pool, err := credential.NewPool(logger, config)
	require.NoError(t, err)
	client, err := githubapi.NewClient(logger, config, pool)
	require.NoError(t, err)
	return client
}

// fakeStore implements store.Writer and store.Store in memory for scheduler
// tests.
type fakeStore struct {
	mu         sync.Mutex
	upserts    [][]model.Repo
	updates    map[int64]map[string]interface{}
	candidates []model.Repo
	stats      []*model.RunStat
	upsertErr  error
	updateErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{updates: make(map[int64]map[string]interface{})}
}

func (f *fakeStore) BulkUpsert(ctx context.Context, repos []model.Repo) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	batch := make([]model.Repo, len(repos))
	copy(batch, repos)
	f.upserts = append(f.upserts, batch)
	return int64(len(repos)), nil
}

func (f *fakeStore) UpdateDetails(ctx context.Context, githubID int64, fields map[string]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updates[githubID] = fields
	return 1, nil
}

func (f *fakeStore) Candidates(ctx context.Context, filter store.CandidateFilter) ([]model.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Repo
	for _, repo := range f.candidates {
		if _, done := f.updates[repo.GithubID]; done {
			continue
		}
		out = append(out, repo)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SaveRunStat(ctx context.Context, stat *model.RunStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = append(f.stats, stat)
	return nil
}

func (f *fakeStore) savedRows() []model.Repo {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Repo
	for _, batch := range f.upserts {
		all = append(all, batch...)
	}
	return all
}

func newSearchServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
