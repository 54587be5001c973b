package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/semaphore"

	"barbertry/internal/auth"
	"barbertry/internal/config"
	"barbertry/internal/flow"
	"barbertry/internal/gemini"
	"barbertry/internal/handlers"
	"barbertry/internal/httpclient"
	"barbertry/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	storage := cfg.Storage()
	gateway, err := store.New(store.Options{
		Storage:    storage,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	logger.Info("storage backend selected", "remote", storage.Remote != nil)

	authService := auth.New(auth.Options{
		Dir:    cfg.DataDir,
		Logger: logger,
	})

	controller := flow.New(flow.Options{
		Generator: gem,
		Gateway:   gateway,
		Auth:      authService,
		Logger:    logger,
		Timeout:   cfg.RequestTimeout,
	})
	defer controller.Close()

	handler := handlers.New(handlers.Options{
		Controller: controller,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           withLogging(withConcurrencyCap(mux, cfg.MaxConcurrent), logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("web started", "addr", cfg.WebAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// withConcurrencyCap bounds how many generation-heavy requests run at once.
func withConcurrencyCap(next http.Handler, max int) http.Handler {
	if max < 1 {
		max = 1
	}
	sem := semaphore.NewWeighted(int64(max))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/generate" || r.URL.Path == "/api/export" {
			if err := sem.Acquire(r.Context(), 1); err != nil {
				http.Error(w, "request canceled", http.StatusServiceUnavailable)
				return
			}
			defer sem.Release(1)
		}
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
