package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/config"
	"github.com/kailas-cloud/indexgate/internal/configstore"
	"github.com/kailas-cloud/indexgate/internal/db"
	dbRedis "github.com/kailas-cloud/indexgate/internal/db/redis"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/engine"
	"github.com/kailas-cloud/indexgate/internal/engine/elastic"
	logpkg "github.com/kailas-cloud/indexgate/internal/logger"
	"github.com/kailas-cloud/indexgate/internal/metrics"
	"github.com/kailas-cloud/indexgate/internal/schema"
	chiTransport "github.com/kailas-cloud/indexgate/internal/transport/chi"
	apikeyuc "github.com/kailas-cloud/indexgate/internal/usecase/apikey"
	documentuc "github.com/kailas-cloud/indexgate/internal/usecase/document"
	guarduc "github.com/kailas-cloud/indexgate/internal/usecase/guard"
	healthuc "github.com/kailas-cloud/indexgate/internal/usecase/health"
	lifecycleuc "github.com/kailas-cloud/indexgate/internal/usecase/lifecycle"
	searchuc "github.com/kailas-cloud/indexgate/internal/usecase/search"
	"github.com/kailas-cloud/indexgate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting indexgate",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("engine_addresses", cfg.Engine.Addresses),
		zap.String("stores_backend", cfg.Stores.Backend),
	)

	metrics.RegisterEngineMetrics()
	metrics.RegisterConfigStoreMetrics()

	ctx := context.Background()

	// Search engine
	es, err := elastic.New(elastic.Config{
		Addresses:       cfg.Engine.Addresses,
		Username:        cfg.Engine.Username,
		Password:        cfg.Engine.Password,
		APIKey:          cfg.Engine.APIKey,
		InsecureSkipTLS: cfg.Engine.InsecureSkipTLS,
		Refresh:         cfg.Engine.Refresh,
	})
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.Error(err))
	}
	eng := engine.NewInstrumented(es, time.Duration(cfg.Engine.TimeoutSec)*time.Second, logger)
	if err := engine.WaitForReady(ctx, eng, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Engine not ready", zap.Error(err))
	}
	logger.Info("Connected to engine")

	// Config stores
	mappingsPersister, keysPersister, shared := buildPersisters(ctx, cfg.Stores, logger)
	if shared != nil {
		defer shared.Close()
	}

	mappings := configstore.New[mapping.Mapping]("mappings", mappingsPersister, logger).
		WithCreateIfMissing(cfg.Stores.CreateIfMissing).
		WithValidator(mapping.Mapping.Validate).
		WithWriteCounter(metrics.ConfigStoreWritesTotal)
	keys := configstore.New[apikey.Key]("apikeys", keysPersister, logger).
		WithCreateIfMissing(cfg.Stores.CreateIfMissing).
		WithValidator(apikey.Key.Validate).
		WithWriteCounter(metrics.ConfigStoreWritesTotal)

	// Load eagerly so a broken store fails at startup, not on the first request.
	for _, load := range []func(context.Context) error{mappings.Load, keys.Load} {
		if err := load(ctx); err != nil {
			logger.Fatal("Config store not loadable", zap.Error(err))
		}
	}

	// Use cases
	guard := guarduc.New(keys)
	var redisPinger healthuc.Pinger
	if shared != nil {
		redisPinger = shared
	}
	services := chiTransport.Services{
		Lifecycle: lifecycleuc.New(mappings, keys, schema.New(cfg.Schema.MaxGram), eng, logger),
		Documents: documentuc.New(guard, eng),
		Search:    searchuc.New(guard, mappings, eng),
		Keys:      apikeyuc.New(keys, mappings, eng, guard, logger),
		Guard:     guard,
		Health:    healthuc.New(eng, redisPinger, mappings, keys),
	}

	tokens := chiTransport.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.DefaultTokenTTLSec)*time.Second)
	server := chiTransport.NewServer(services, tokens, cfg.Auth.AdminKeys, logger).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyBytes))

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
}

// buildPersisters picks the backing medium for both config stores. The shared
// store is nil for file persistence; otherwise main closes it and health pings it.
func buildPersisters(
	ctx context.Context, cfg config.StoresConfig, logger *zap.Logger,
) (mappings, keys configstore.Persister, shared db.Store) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
		return configstore.NewRedisPersister(store, cfg.Redis.KeyPrefix+"mappings"),
			configstore.NewRedisPersister(store, cfg.Redis.KeyPrefix+"apikeys"),
			store
	default:
		return configstore.NewFilePersister(cfg.MappingsPath), configstore.NewFilePersister(cfg.APIKeysPath), nil
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
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

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
