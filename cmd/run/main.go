package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/crawler"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
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

	repoMd, _ := model.NewRepo(config, logger, mysql)
	foundFileMd, _ := model.NewFoundFile(config, logger, mysql)
	runStatMd, _ := model.NewRunStat(config, logger, mysql)
	if err := mysql.Migrate(repoMd, foundFileMd, runStatMd); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	harvester, err := crawler.NewHarvester(logger, config, mysql)
	if err != nil {
		logger.Error(ctx, "Failed to create harvester: %v", err)
		os.Exit(1)
	}

	// First interrupt stops new submissions and flushes pending batches,
	// a second one kills the process.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn(ctx, "Received shutdown signal, finishing in-flight work")
		cancel()
		<-sigCh
		logger.Error(ctx, "Forced shutdown")
		os.Exit(1)
	}()

	logger.Info(ctx, "Starting %s %s", config.App.Name, config.App.Version)
	err = harvester.Run(ctx)
	if closer, ok := harvester.Writer.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Warn(ctx, "Failed to close writer: %v", closeErr)
		}
	}
	if err != nil {
		logger.Error(ctx, "Harvest failed: %v", err)
		os.Exit(1)
	}
}
