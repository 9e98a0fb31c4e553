package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finance-ledger/internal/app"
	"finance-ledger/internal/config"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()
	if err := cfg.LoadEnv(nil); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(2)
	}
	cfg.AddFlags(pflag.CommandLine)
	pflag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid config:", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	metrics.Register()
	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
