package store

import (
	"fmt"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

// Factory wires the configured storage backend. The returned Writer is
// what phase 1 and phase 2 write through; the returned Store always reads
// from MySQL since candidate selection needs a queryable backend.
func Factory(backend string, logger log.Logger, config *cfg.Config, mysql *db.Mysql) (Writer, Store, error) {
	mysqlStore, err := NewMysqlStore(logger, config, mysql)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case "mysql", "":
		return mysqlStore, mysqlStore, nil
	case "kafka":
		kafkaStore, err := NewKafkaStore(logger, config)
		if err != nil {
			return nil, nil, err
		}
		return kafkaStore, mysqlStore, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
