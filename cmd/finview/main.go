package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finview/internal/config"
	"finview/internal/finance"
	"finview/internal/finance/memory"
	"finview/internal/finance/rest"
	"finview/internal/log"
	"finview/internal/session"
	"finview/internal/storage"
	"finview/internal/web"
)

func main() {
	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session tokens persist in a local SQLite file so a restart keeps
	// the user logged in. The memory backend keeps everything in-process.
	var sessionStore session.Store
	if cfg.Backend == config.BackendMemory {
		sessionStore = session.NewMemStore()
	} else {
		kv, err := storage.OpenKV(cfg.SessionDBPath)
		if err != nil {
			logger.Error("Failed to open session store",
				log.FieldError, err, "path", cfg.SessionDBPath)
			os.Exit(1)
		}
		defer kv.Close()
		sessionStore = kv
	}

	sessions, err := session.NewManager(ctx, sessionStore)
	if err != nil {
		logger.Error("Failed to restore session", log.FieldError, err)
		os.Exit(1)
	}

	var (
		auth  finance.Authenticator
		txns  finance.TransactionStore
		cats  finance.CategoryStore
		maint finance.Maintainer
	)

	switch cfg.Backend {
	case config.BackendMemory:
		store := memory.New().Seed("demo", "demo1234")
		auth, txns, cats, maint = store, store, store, store
		logger.Info("Initialized memory backend",
			log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.Backend)
	default:
		client, err := rest.New(cfg.APIBaseURL, sessions)
		if err != nil {
			logger.Error("Failed to initialize API client",
				log.FieldError, err, "base_url", cfg.APIBaseURL)
			os.Exit(1)
		}
		auth, txns, cats, maint = client, client, client, client
		logger.Info("Initialized REST backend",
			log.FieldOperation, log.OpStartup,
			log.FieldBackend, cfg.Backend,
			"base_url", cfg.APIBaseURL)
	}

	srv := web.NewServer(web.Config{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RequestsPerMinute,
		SnapshotTTL:       cfg.SnapshotTTL,
	}, auth, txns, cats, maint, sessions, logger.WithComponent(log.ComponentWeb))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finview server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port, log.FieldBackend, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
