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
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/config"
	"github.com/kailas-cloud/marketplace/internal/db"
	"github.com/kailas-cloud/marketplace/internal/db/breaker"
	dbRedis "github.com/kailas-cloud/marketplace/internal/db/redis"
	logpkg "github.com/kailas-cloud/marketplace/internal/logger"
	"github.com/kailas-cloud/marketplace/internal/metrics"
	projectrepo "github.com/kailas-cloud/marketplace/internal/repository/project"
	tagrepo "github.com/kailas-cloud/marketplace/internal/repository/tag"
	"github.com/kailas-cloud/marketplace/internal/seed"
	chiTransport "github.com/kailas-cloud/marketplace/internal/transport/chi"
	healthuc "github.com/kailas-cloud/marketplace/internal/usecase/health"
	marketplaceuc "github.com/kailas-cloud/marketplace/internal/usecase/marketplace"
	"github.com/kailas-cloud/marketplace/internal/version"
)

func main() {
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

	logger.Info("Starting marketplace API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("key_prefix", cfg.Storage.KeyPrefix),
	)

	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer redisStore.Close()

	ctx := context.Background()
	if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterSearchMetrics()

	var store db.Store = redisStore
	if cfg.Breaker.Enabled {
		store = breaker.New(redisStore, breaker.Config{
			Name:             "store",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         time.Duration(cfg.Breaker.IntervalSec) * time.Second,
			Timeout:          time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
			MinRequests:      cfg.Breaker.MinRequests,
			ReadyToTripRatio: cfg.Breaker.ReadyToTripRatio,
		}, logger, func(name string, _, to gobreaker.State) {
			metrics.StoreBreakerState.WithLabelValues(name).Set(float64(to))
		})
	}

	projRepo := projectrepo.New(store, cfg.Storage.KeyPrefix).WithBatchSize(cfg.Search.PrefetchBatchSize)
	tagRepo := tagrepo.New(store, cfg.Storage.KeyPrefix).WithBatchSize(cfg.Search.TagBatchSize)
	if err := projRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure project index", zap.Error(err))
	}
	if err := tagRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure tag index", zap.Error(err))
	}

	if cfg.Seed.Path != "" {
		catalog, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			logger.Fatal("Failed to read seed catalog", zap.Error(err))
		}
		if err := seed.Apply(ctx, catalog, tagRepo, projRepo, logger); err != nil {
			logger.Fatal("Failed to load seed catalog", zap.Error(err))
		}
	}

	identities, err := chiTransport.NewIdentities(cfg.Auth.Tokens)
	if err != nil {
		logger.Fatal("Invalid auth tokens", zap.Error(err))
	}

	marketplaceSvc := marketplaceuc.New(projRepo, tagRepo, logger)
	healthSvc := healthuc.New(store, store, projRepo.IndexName(), tagRepo.IndexName())

	server := chiTransport.NewServer(marketplaceSvc, healthSvc, logger).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.IdentityMiddleware(identities))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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
}

// jsonRecoverer turns a handler panic into a JSON 500.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware writes one log line per request and echoes X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

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
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
