package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/config"
	"github.com/mapbook/mapbook/internal/db"
	dbRedis "github.com/mapbook/mapbook/internal/db/redis"
	"github.com/mapbook/mapbook/internal/geocode"
	logpkg "github.com/mapbook/mapbook/internal/logger"
	"github.com/mapbook/mapbook/internal/metrics"
	runrepo "github.com/mapbook/mapbook/internal/repository/run"
	chiTransport "github.com/mapbook/mapbook/internal/transport/chi"
	openaiTransport "github.com/mapbook/mapbook/internal/transport/openai"
	extractuc "github.com/mapbook/mapbook/internal/usecase/extract"
	healthuc "github.com/mapbook/mapbook/internal/usecase/health"
	pipelineuc "github.com/mapbook/mapbook/internal/usecase/pipeline"
	segmentuc "github.com/mapbook/mapbook/internal/usecase/segment"
	"github.com/mapbook/mapbook/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting mapbook API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("geocoder_backend", cfg.Geocoder.Backend),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	completer := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Logger:  logger,
	})

	geocoder, err := geocode.New(geocode.Config{
		Backend:   cfg.Geocoder.Backend,
		UserAgent: cfg.Geocoder.UserAgent,
		APIKey:    cfg.Geocoder.APIKey,
		BaseURL:   cfg.Geocoder.BaseURL,
		Timeout:   time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create geocoder", zap.Error(err))
	}

	// Run storage based on driver
	ctx := context.Background()
	var runs runrepo.Repository
	var pinger healthuc.StoragePinger
	switch cfg.Storage.Driver {
	case "memory":
		runs = runrepo.NewMemory()
	case "redis":
		var store db.Store
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Storage.Addrs,
			Password: cfg.Storage.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create storage", zap.Error(err))
		}
		defer store.Close()

		if err = store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Storage not ready", zap.Error(err))
		}
		logger.Info("Connected to storage")

		runs = runrepo.NewKV(store, cfg.Storage.KeyPrefix, time.Duration(cfg.Storage.RunTTLHours)*time.Hour)
		pinger = store
	default:
		logger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	// Pipeline — composition root
	segmenter := segmentuc.New(completer, logger)
	extractor := extractuc.New(completer, logger)
	processor := pipelineuc.New(segmenter, extractor, geocoder, logger).
		WithChunkSize(cfg.Pipeline.ChunkSize).
		WithGeocodeDelay(time.Duration(cfg.Pipeline.GeocodeDelayMS) * time.Millisecond)

	healthSvc := healthuc.New(pinger, completer)

	server := chiTransport.NewServer(processor, runs, healthSvc, geocoder, cfg.Pipeline.Language, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
