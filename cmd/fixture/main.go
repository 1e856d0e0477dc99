package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kokoroe/kokoroe-sdk-go/internal/app"
	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fixture start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("fixture starting", "addr", cfg.FixtureAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := app.NewFixtureServer(cfg, logger.Zap{})
	if err != nil {
		logger.ErrorObj("failed to initialize fixture server", "error", err)
		return err
	}

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("fixture run: %w", err)
	}
	return nil
}
