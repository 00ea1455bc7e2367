package store

import (
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

func newMockedMysql(t *testing.T) *db.Mysql {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	return db.NewMysqlFromGorm(config, gdb)
}

func TestFactoryMysqlBackend(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewNopLogger()

	writer, st, err := Factory("mysql", logger, config, newMockedMysql(t))

	require.NoError(t, err)
	assert.Same(t, writer, st)
	assert.IsType(t, &MysqlStore{}, writer)
}

func TestFactoryDefaultsToMysql(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewNopLogger()

	writer, _, err := Factory("", logger, config, newMockedMysql(t))

	require.NoError(t, err)
	assert.IsType(t, &MysqlStore{}, writer)
}

func TestFactoryKafkaBackendSplitsCapabilities(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewNopLogger()

	writer, st, err := Factory("kafka", logger, config, newMockedMysql(t))

	require.NoError(t, err)
	assert.IsType(t, &KafkaStore{}, writer)
	// Candidate queries still go to MySQL, the broker cannot answer them.
	assert.IsType(t, &MysqlStore{}, st)
}

func TestFactoryRejectsUnknownBackend(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewNopLogger()

	_, _, err := Factory("postgres", logger, config, newMockedMysql(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}
