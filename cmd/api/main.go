package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	ledgerlyHttp "github.com/MrJamesThe3rd/ledgerly/internal/http"
	reportHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/report"
	"github.com/MrJamesThe3rd/ledgerly/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	svc, cleanup, err := pipeline.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("failed to build report service", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if cfg.API.JWTSecret == "" {
		slog.Warn("API_JWT_SECRET is not set, the report API is unauthenticated")
	}

	router := ledgerlyHttp.New(ledgerlyHttp.Options{
		CORSOrigins: cfg.API.CORSOrigins,
		JWTSecret:   cfg.API.JWTSecret,
		Timeout:     cfg.API.Timeout,
	}, reportHandler.NewHandler(svc))

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}
