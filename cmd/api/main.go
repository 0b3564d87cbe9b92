package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planmarket/planmarket/config"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/bootstrap"
	"github.com/planmarket/planmarket/internal/logging"
	"github.com/planmarket/planmarket/internal/storefront"
	cronjob "github.com/planmarket/planmarket/internal/storefront/cron"

	"go.uber.org/zap"
)

const serviceName = "planmarket-storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, product cache disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger.Named("backend"),
	})
	if err != nil {
		logger.Fatal("api client", zap.Error(err))
	}

	var cache *storefront.ProductCache
	if rdb != nil {
		cache = storefront.NewProductCache(rdb, cfg.Products.CacheTTL)
	}
	products := storefront.NewProducts(client, cache, cfg.Products.FetchTimeout)

	scheduler := cronjob.NewScheduler(logger.Named("cron"))
	if cache != nil && cfg.Products.WarmSchedule != "" {
		if err := scheduler.Add(cronjob.Job{
			Name:     "warm_products",
			Schedule: cfg.Products.WarmSchedule,
			Timeout:  cfg.Products.FetchTimeout,
			Run:      products.Warm,
		}); err != nil {
			logger.Fatal("cron", zap.Error(err))
		}
	}
	scheduler.Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		BackendURL:     cfg.API.BaseURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Redis:          rdb,
		Products:       products,
		ClientConfig:   storefront.NewClientConfig(cfg.API.BaseURL, cfg.API.PayPalClientID),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.API.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
