// Drains the kafka topics produced by the harvester when the kafka storage
// backend is selected, re-batching messages into MySQL writes.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/kafka"
	"github.com/minhlq/github-harvester/pkg/log"
)

const (
	batchSize    = 100
	batchTimeout = 5 * time.Second
)

func main() {
	loader, err := cfg.NewViperLoader()
	if err != nil {
		fmt.Printf("Failed to create config loader: %v\n", err)
		os.Exit(1)
	}
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, _ := log.NewCslLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mysql, err := db.NewMysql(config)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer mysql.Close()

	mysqlStore, err := store.NewMysqlStore(logger, config, mysql)
	if err != nil {
		logger.Error(ctx, "Failed to create store: %v", err)
		os.Exit(1)
	}

	if err := startRepoConsumer(ctx, config, logger, mysqlStore); err != nil {
		logger.Error(ctx, "Failed to start repo consumer: %v", err)
		os.Exit(1)
	}
	if err := startDetailConsumer(ctx, config, logger, mysqlStore); err != nil {
		logger.Error(ctx, "Failed to start detail consumer: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down")
	cancel()
}

func startRepoConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, mysqlStore *store.MysqlStore) error {
	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.TopicRepo, config.Kafka.ConsumerGroup+"-repo")
	if err != nil {
		return err
	}

	messages := make(chan model.Repo, batchSize*2)
	go batchRepos(ctx, messages, logger, mysqlStore)

	consumer.RegisterHandler(model.MessageKeyRepo, func(data []byte) error {
		var msg model.RepoMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal repo message: %w", err)
		}
		select {
		case messages <- msg.Entity():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Repo consumer stopped: %v", err)
		}
	}()
	logger.Info(ctx, "Repository consumer started")
	return nil
}

// batchRepos accumulates messages and flushes on size or timeout, so the
// upsert pattern stays identical to the direct-MySQL backend.
func batchRepos(ctx context.Context, messages <-chan model.Repo, logger log.Logger, mysqlStore *store.MysqlStore) {
	batch := make([]model.Repo, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if _, err := mysqlStore.BulkUpsert(context.WithoutCancel(ctx), batch); err != nil {
			logger.Error(ctx, "Failed to flush %d repos: %v", len(batch), err)
		} else {
			logger.Debug(ctx, "Flushed %d repos", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case repo := <-messages:
			batch = append(batch, repo)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func startDetailConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, mysqlStore *store.MysqlStore) error {
	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.TopicDetail, config.Kafka.ConsumerGroup+"-detail")
	if err != nil {
		return err
	}

	consumer.RegisterHandler(model.MessageKeyDetail, func(data []byte) error {
		var msg model.DetailMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal detail message: %w", err)
		}
		if _, err := mysqlStore.UpdateDetails(ctx, msg.GithubID, msg.NormalizedFields()); err != nil {
			return err
		}
		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Detail consumer stopped: %v", err)
		}
	}()
	logger.Info(ctx, "Detail consumer started")
	return nil
}
