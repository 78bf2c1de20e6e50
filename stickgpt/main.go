package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/controllers"
	"stickgpt/stickgpt/routes"
	"stickgpt/stickgpt/sources"
	"stickgpt/stickgpt/stores"
	"stickgpt/stickgpt/utils/logging"
	"stickgpt/stickgpt/utils/metrics"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	backend, err := sources.Open(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("storage backend error", zap.String("backend", cfg.StorageBackend), zap.Error(err))
		os.Exit(1)
	}
	defer backend.Close()

	var collector metrics.Collector = metrics.NewNoopCollector()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		prom := metrics.NewCollector()
		collector, metricsHandler = prom, prom.Handler()
	}

	set := stores.NewSet(backend)
	router := routes.NewRouter(routes.Controllers{
		Health:    controllers.NewHealthController(backend.Name, backend.KV),
		Bookmarks: controllers.NewBookmarksController(set.Bookmarks, collector),
		Chats:     controllers.NewChatController(set.Chats, collector),
		Memory:    controllers.NewMemoryController(set.Memory, collector),
		Queries:   controllers.NewQueriesController(set.Queries, collector),
		Metrics:   metricsHandler,
	}, cfg)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.String("backend", backend.Name))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
