package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertychat/internal/config"
	"propertychat/internal/handler"
	"propertychat/internal/repository"
	"propertychat/internal/service"
	"propertychat/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("PropertyChat conversational search",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Identity and search history store; sessions fall back to the default user without it
	var identityStore service.IdentityStore
	var history handler.SearchHistory
	store, err := repository.NewStore(cfg.Identity.Driver, cfg.IdentityDSN(), cfg.Identity.MaxConnections)
	if err != nil {
		logger.Warn("Identity store unavailable, using default user id",
			zap.String("driver", cfg.Identity.Driver),
			zap.String("default_user_id", cfg.Identity.DefaultUserID),
			zap.Error(err),
		)
	} else {
		defer store.Close()
		identityStore = store
		history = store
		logger.Info("Connected to identity store", zap.String("driver", cfg.Identity.Driver))
	}

	// Backend collaborators
	backend := service.NewBackendClient(&cfg.Backend, logger)
	var index service.SearchIndex = backend
	if cfg.Cache.Enabled() {
		cache, err := repository.NewRedisSearchCache(ctx, &cfg.Cache)
		if err != nil {
			logger.Warn("Search cache disabled", zap.Error(err))
		} else {
			defer cache.Close()
			index = service.NewCachedSearchIndex(backend, cache, cfg.Cache.SearchTTL, logger)
			logger.Info("Search cache enabled",
				zap.String("redis_addr", cfg.Cache.RedisAddr),
				zap.Duration("ttl", cfg.Cache.SearchTTL),
			)
		}
	}
	logger.Info("Backend configured",
		zap.String("base_url", cfg.Backend.BaseURL),
		zap.Duration("timeout", cfg.Backend.Timeout),
	)

	// Initialize services
	collab := service.Collaborators{
		Parser:    backend,
		Index:     index,
		Saved:     backend,
		Predictor: backend,
	}
	sessions := service.NewSessionManager(collab, cfg.Session.Greeting, logger)
	identity := service.NewUserIdentity(identityStore, cfg.Identity.DefaultUserID, logger)
	limiter := handler.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	go sessions.Run(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
	go func() {
		ticker := time.NewTicker(cfg.Session.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(cfg.Session.IdleTimeout)
			}
		}
	}()

	// Initialize handlers
	router := handler.NewRouter(handler.Handlers{
		Session:   handler.NewSessionHandler(sessions, identity, history),
		Search:    handler.NewSearchHandler(sessions, history),
		Selection: handler.NewSelectionHandler(sessions),
		Compare:   handler.NewCompareHandler(sessions),
	}, limiter, cfg.Server.AllowedOrigins, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped", zap.Int("open_sessions", sessions.Count()))
}
