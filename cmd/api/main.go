package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/confirmdialog/internal/config"
	"github.com/dejobratic/confirmdialog/internal/confirmation/adapters"
	httpadapter "github.com/dejobratic/confirmdialog/internal/confirmation/adapters/http"
	"github.com/dejobratic/confirmdialog/internal/confirmation/adapters/memory"
	confirmpostgres "github.com/dejobratic/confirmdialog/internal/confirmation/adapters/postgres"
	confirmsqlite "github.com/dejobratic/confirmdialog/internal/confirmation/adapters/sqlite"
	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	confirmmetrics "github.com/dejobratic/confirmdialog/internal/confirmation/metrics"
	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/database"
	"github.com/dejobratic/confirmdialog/internal/kafka"
	"github.com/dejobratic/confirmdialog/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(level, os.Stdout).With(
		"service", cfg.Service.Name,
		"environment", cfg.Service.Environment,
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down telemetry", "error", err)
		}
	}()

	meter := tel.Meter(cfg.Service.Name)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	dialogMetrics, err := confirmmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	observableStore := adapters.NewObservableStore(store, cfg.Storage.Driver, dbMetrics)

	if len(cfg.Kafka.Brokers) > 0 {
		logger.Warn("kafka brokers configured but no producer is wired, events are only logged", "brokers", cfg.Kafka.Brokers)
	}
	eventBus := adapters.NewObservableEventBus(kafka.NewNoopEventBus(logger), kafkaMetrics)

	registry := app.NewActionRegistry()
	if err := registerActions(registry, logger); err != nil {
		return fmt.Errorf("register actions: %w", err)
	}

	factory := app.NewDialogFactory(observableStore, registry,
		app.WithEventBus(eventBus),
		app.WithLogger(logger),
		app.WithMetrics(dialogMetrics),
		app.WithDefaultLayoutFile(cfg.Dialog.LayoutFile),
		app.WithDefaultTemplateFile(cfg.Dialog.TemplateFile),
		app.WithManagerOptions(app.WithTTL(cfg.Dialog.TTL)),
	)

	confirmationsHandler := httpadapter.NewHandler(
		factory,
		httpadapter.NewRenderer(),
		httpadapter.NewSessions(cfg.Session.CookieName, cfg.Session.CookieSecure),
		logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := observableStore.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	confirmationsHandler.Register(mux)

	handler := withRecovery(withLogging(httpadapter.WithMetrics(mux, httpMetrics)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"storage", cfg.Storage.Driver,
			"actions", registry.Names(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

// openStore builds the session store selected by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.SessionStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("migrations completed successfully")
		}

		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("create database pool: %w", err)
		}
		return confirmpostgres.NewStore(pool), pool.Close, nil

	case config.DriverSQLite:
		store, err := confirmsqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close sqlite store", "error", err)
			}
		}, nil

	default:
		logger.Warn("using in-memory session store, pending confirmations are lost on restart")
		return memory.NewStore(), func() {}, nil
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
