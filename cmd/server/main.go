// Package main is the entry point for the DishDash API server.
//
// Its job is reading configuration from the environment, building the
// logger, and handing both to internal/server. All actual behavior lives in
// the imported packages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sakif/dishdash-server/internal/server"
	"github.com/sakif/dishdash-server/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the environment. MONGODB_URI wins when set; otherwise the
// Atlas URI is composed from DB_USER and DB_PASS the way earlier deployments
// configured it.
func loadConfig() (server.Config, error) {
	cfg := server.Config{
		Port:       5000,
		DBName:     "DishDashDB",
		CORSOrigin: "http://localhost:3000",
		PageSize:   service.DefaultPageSize,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT %q", portStr)
		}
		cfg.Port = port
	}

	cfg.MongoURI = os.Getenv("MONGODB_URI")
	if cfg.MongoURI == "" {
		user, pass := os.Getenv("DB_USER"), os.Getenv("DB_PASS")
		if user == "" || pass == "" {
			return cfg, fmt.Errorf("MONGODB_URI or DB_USER/DB_PASS must be set")
		}
		cfg.MongoURI = fmt.Sprintf(
			"mongodb+srv://%s:%s@cluster0.pbmq8lu.mongodb.net/?retryWrites=true&w=majority&appName=Cluster0",
			url.QueryEscape(user), url.QueryEscape(pass),
		)
	}

	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DBName = name
	}

	cfg.JWTSecret = os.Getenv("SECRET_KEY")
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("SECRET_KEY must be set")
	}

	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		cfg.CORSOrigin = origin
	}

	if sizeStr := os.Getenv("PAGE_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return cfg, fmt.Errorf("invalid PAGE_SIZE %q", sizeStr)
		}
		cfg.PageSize = size
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleCallbackURL = os.Getenv("GOOGLE_CALLBACK_URL")
	if cfg.GoogleClientID != "" && cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	return cfg, nil
}

// logLevel maps LOG_LEVEL to a slog level, defaulting to info.
func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
