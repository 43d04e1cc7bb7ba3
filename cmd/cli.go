package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ragnova/ragnova/internal/app"
	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/log"
	"github.com/ragnova/ragnova/internal/session"
)

// initLogger builds the CLI logger. Debug level comes from --debug or the
// DEBUG environment variable.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if flagDebug || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// resolveUser picks the knowledge base owner: --user flag, then RAGNOVA_USER,
// then "default".
func resolveUser() string {
	if flagUser != "" {
		return flagUser
	}
	if u := os.Getenv("RAGNOVA_USER"); u != "" {
		return u
	}
	return "default"
}

// buildApp loads configuration and wires the application. The returned
// cleanup must be called before exit.
func buildApp(ctx context.Context) (*app.App, func(), error) {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}

	cleanup := func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}
	return a, cleanup, nil
}

// openSessionAndKB issues a CLI session for the resolved user and opens the
// selected knowledge base.
func openSessionAndKB(ctx context.Context, a *app.App) (*session.Session, *kb.Store, error) {
	sess, err := a.Sessions.Issue(resolveUser())
	if err != nil {
		return nil, nil, err
	}
	store, err := a.OpenKB(ctx, sess, flagKB)
	if err != nil {
		return nil, nil, err
	}
	return sess, store, nil
}

// isURL reports whether the ingest argument is a web address rather than a
// local path.
func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}
