package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/ui"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

func main() {
	port := flag.Int("port", 0, "Port for the inspection server, overrides config")
	flag.Parse()

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
	if *port == 0 {
		*port = config.Ui.Port
	}

	logger, _ := log.NewCslLogger()
	ctx := context.Background()

	mysql, err := db.NewMysql(config)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer mysql.Close()

	server, err := ui.NewServer(logger, config, mysql, *port)
	if err != nil {
		logger.Error(ctx, "Failed to create server: %v", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error(ctx, "Server failed: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during shutdown: %v", err)
	}
	logger.Info(ctx, "Server shut down gracefully")
}
