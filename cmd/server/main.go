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

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/importer"
	"github.com/eempirepl/allegro-profit-analyzer/internal/application/report"
	"github.com/eempirepl/allegro-profit-analyzer/internal/application/synchro"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/baselinker"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/config"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/currency"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/logger"
	"github.com/eempirepl/allegro-profit-analyzer/internal/infrastructure/persistence"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/handler"
	"github.com/eempirepl/allegro-profit-analyzer/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabase(&cfg.Database, &cfg.Log, zapLogger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = persistence.CloseDatabase(db) }()

	productRepo := persistence.NewGormProductRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)

	limiter := baselinker.NewLimiter(cfg.Limiter.MinInterval, cfg.Limiter.QueueCapacity, cfg.Limiter.MaxRetries, zapLogger)
	gateway := baselinker.NewClient(&cfg.BaseLinker, limiter, zapLogger)
	rates := currency.NewConverter(&cfg.Currency, zapLogger)

	productSync := synchro.NewProductSyncService(gateway, productRepo, cfg.BaseLinker.InventoryID, zapLogger)
	orderSync := synchro.NewOrderSyncService(gateway, orderRepo, zapLogger)
	profitability := report.NewProfitabilityService(orderRepo, productRepo, rates, zapLogger)
	feeImport := importer.NewFeeImportService(orderRepo, zapLogger)

	engine := router.New(cfg, zapLogger, router.Handlers{
		Products:  handler.NewProductHandler(productRepo, productSync, zapLogger),
		Orders:    handler.NewOrderHandler(orderRepo, orderSync, profitability, zapLogger),
		Sync:      handler.NewSyncHandler(productSync, orderSync, zapLogger),
		CSVImport: handler.NewCSVImportHandler(feeImport, zapLogger),
		System:    handler.NewSystemHandler(db, gateway, version, zapLogger),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		zapLogger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	zapLogger.Info("stopped cleanly")
	return nil
}
