package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	logger, _ := log.NewNopLogger()

	handler, err := NewHandler(logger, config, db.NewMysqlFromGorm(config, gdb))
	require.NoError(t, err)
	return handler, mock
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}

func TestGetReposPaginates(t *testing.T) {
	handler, mock := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	mock.ExpectQuery("SELECT .* FROM `repos`").WillReturnRows(
		sqlmock.NewRows([]string{"github_id", "full_name", "owner_login", "stargazers_count", "detail_completed"}).
			AddRow(1, "a/top", "a", 900, true).
			AddRow(2, "b/next", "b", 400, false))
	mock.ExpectQuery("SELECT count").WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(2))

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/repos?page=1&pageSize=10", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var payload struct {
		Repositories []Repository `json:"repositories"`
		Pagination   struct {
			TotalCount int64 `json:"totalCount"`
			TotalPages int64 `json:"totalPages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Len(t, payload.Repositories, 2)
	assert.Equal(t, "a/top", payload.Repositories[0].FullName)
	assert.Equal(t, int64(900), payload.Repositories[0].Stars)
	assert.True(t, payload.Repositories[0].DetailCompleted)
	assert.Equal(t, int64(2), payload.Pagination.TotalCount)
	assert.Equal(t, int64(1), payload.Pagination.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReposDetailOnlyFiltersCount(t *testing.T) {
	handler, mock := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	mock.ExpectQuery("SELECT .* FROM `repos` WHERE detail_completed").WillReturnRows(
		sqlmock.NewRows([]string{"github_id", "full_name", "detail_completed"}).
			AddRow(1, "a/top", true))
	mock.ExpectQuery("SELECT count.* WHERE detail_completed").WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(1))

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/repos?detailOnly=true", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var payload struct {
		Pagination struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, int64(1), payload.Pagination.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunStats(t *testing.T) {
	handler, mock := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	mock.ExpectQuery("SELECT .* FROM `run_stats`").WillReturnRows(
		sqlmock.NewRows([]string{"collected", "enriched", "failed", "skipped"}).
			AddRow(120, 30, 2, 1))

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/run-stats", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var payload struct {
		Runs []RunStat `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.Len(t, payload.Runs, 1)
	assert.Equal(t, int64(120), payload.Runs[0].Collected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
