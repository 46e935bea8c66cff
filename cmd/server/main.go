// main is the entry point for the halocal calendar server.
//
// It reads the common and instance YAML files, opens the event store,
// registers the HTTP routes and serves until SIGINT or SIGTERM.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: how this file fits into the project
// ────────────────────────────────────────────────────────────────────
// This file is the "composition root", the single place where the
// independent packages (config, db, auth, handlers) are wired together.
// Every other package receives its dependencies as values and can be
// tested on its own.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halocal/halocal/internal/auth"
	"github.com/halocal/halocal/internal/config"
	"github.com/halocal/halocal/internal/db"
	"github.com/halocal/halocal/internal/handlers"
	"github.com/halocal/halocal/internal/logging"
)

func main() {
	commonPath := flag.String("c", "common.yaml", "path to the common config file")
	instancePath := flag.String("i", "instance.yaml", "path to the instance config file")
	logLevel := flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
	flag.Parse()

	if err := run(*commonPath, *instancePath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "halocal: %v\n", err)
		os.Exit(1)
	}
}

func run(commonPath, instancePath, levelOverride string) error {
	// ── Configuration ────────────────────────────────────────────────
	cfg, err := config.Load(commonPath, instancePath)
	if err != nil {
		return err
	}
	if levelOverride != "" {
		cfg.Instance.LogLevel = levelOverride
	}
	level, err := logging.ParseLevel(cfg.Instance.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, cfg.Instance.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────
	// Open creates both tables when they are missing.
	store, err := db.Open(ctx, db.Options{
		Driver:      db.Dialect(cfg.Common.DBDriver),
		DSN:         cfg.Common.DBURL,
		Login:       cfg.Common.DBLogin,
		Password:    cfg.Common.DBPassword,
		UsersTable:  cfg.Instance.TableOfUsers,
		EventsTable: cfg.Instance.TableOfEvents,
	}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	// ── Sessions ─────────────────────────────────────────────────────
	// The cookie key lives only in memory: a restart logs everybody out.
	codec, err := auth.NewRandomCodec()
	if err != nil {
		return fmt.Errorf("session key: %w", err)
	}

	srv := &handlers.Server{
		Store:     store,
		Users:     auth.NewPasswordVerifier(store, cfg.Instance.BcryptCost),
		Sessions:  auth.NewCookieSessions(codec, cfg.Secure(), logger),
		Logger:    logger,
		Prefix:    cfg.Instance.URLPath,
		Top:       cfg.Instance.Top,
		Links:     cfg.Instance.Links,
		Location:  cfg.Location(),
		Host:      cfg.Common.Site,
		StaticDir: cfg.Instance.StaticDir,
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Instance.LocalPort),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", httpSrv.Addr,
			"public", fmt.Sprintf("%s://%s:%d%s", cfg.Common.Proto, cfg.Common.Site, cfg.Instance.RemotePort, cfg.Instance.URLPath),
			"zone", cfg.Instance.ZoneID,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
