package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tidehaven/authportal/internal/cache"
	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/server"
	"github.com/tidehaven/authportal/internal/session"
)

const version = "1.0.0"

func main() {
	envFile := flag.String("env-file", "", "optional .env file to load before reading configuration")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("authportal v%s\n", version)
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		// A .env in the working directory is a convenience, not a requirement.
		godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting authportal", "version", version)

	cacheInstance, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info("cache initialized", "type", cfg.Cache.Type)

	store := session.NewStore(cacheInstance, cfg.Server.SessionTTL)

	client := oidc.NewClient(cfg.Provider, store, logger)
	logger.Info("provider client initialized", "domain", cfg.Provider.Domain)

	srv := server.New(*cfg, cacheInstance, store, client, logger)
	return srv.Start()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
