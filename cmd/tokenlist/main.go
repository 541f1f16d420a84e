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

	"solana_tokens/internal/app/provider"
	"solana_tokens/internal/app/service"
	"solana_tokens/internal/client"
	"solana_tokens/internal/infrastructure/configloader"
	"solana_tokens/internal/infrastructure/restapi"
	"solana_tokens/internal/pkg/logger"
	"solana_tokens/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = configloader.DefaultPath
	}

	cfg, err := configloader.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger.SetLogger(logger.NewZapBridge(zapLogger, cfg.Logging.Level))
	appLogger := logger.NewSlogAdapter()
	logger.Info("Token list service starting", "config", configPath, "autoLoad", string(cfg.TokenStore.AutoLoadMode()), "failurePolicy", string(cfg.TokenStore.Policy()))

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *rate.Limiter
	if cfg.Jupiter.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Jupiter.RateLimitPerSecond), cfg.Jupiter.Burst)
	}
	jupiterClient := client.NewJupiterClient(cfg.Jupiter.BaseURL, cfg.Jupiter.RequestTimeout(), limiter, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The auto-load outlives the signal context so that shutdown never interrupts a retrieval.
	store, _ := provider.Mount(context.WithoutCancel(ctx), jupiterClient, appLogger,
		service.WithAutoLoad(cfg.TokenStore.AutoLoadMode()),
		service.WithFailurePolicy(cfg.TokenStore.Policy()),
		service.WithMetrics(metrics.MustRegisterMetrics()),
	)
	defer store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      restapi.SetupRouter(store, cfg, appLogger, zapLogger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Token list service stopped with error", "error", err)
		return
	}
	logger.Info("Token list service stopped")
}

func newZapLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
