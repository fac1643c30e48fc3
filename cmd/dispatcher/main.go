package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hookpulse/hookpulse/pkg/config"
	"github.com/hookpulse/hookpulse/pkg/delivery"
	"github.com/hookpulse/hookpulse/pkg/dispatcher"
	"github.com/hookpulse/hookpulse/pkg/logging"
	"github.com/hookpulse/hookpulse/pkg/metrics"
	"github.com/hookpulse/hookpulse/pkg/monitor"
	"github.com/hookpulse/hookpulse/pkg/store/postgres"
	redisclient "github.com/hookpulse/hookpulse/pkg/store/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redis, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	ledger := postgres.NewLedgerRepository(db.DB(), cfg.Delivery.ClaimLease)
	endpoints := postgres.NewEndpointRepository(db.DB())
	monitors := postgres.NewMonitorRepository(db.DB())
	statusCache := redisclient.NewStatusCache(redis.Client(), 2*cfg.Monitor.Interval)

	emitter := metrics.NewEmitter(logger, cfg.Metrics.MaxLabelSets, cfg.Metrics.SampleVolumeThreshold, cfg.Metrics.SampleRate)

	deliveryEngine := delivery.NewEngine(
		ledger,
		endpoints,
		delivery.NewSender(cfg.Delivery.Timeout),
		delivery.NewRetryPolicy(cfg.Delivery.MaxAttempts),
		emitter,
		logger.Named("delivery"),
		cfg.Delivery.BatchSize,
	)

	checkEngine := monitor.NewChecker(
		monitors,
		monitors,
		statusCache,
		emitter,
		logger.Named("monitor"),
		cfg.Monitor.Interval,
		cfg.Monitor.Timeout,
		cfg.Monitor.MaxInFlight,
		cfg.Monitor.FailureWindow,
	)

	disp := dispatcher.New(
		deliveryEngine,
		checkEngine,
		db,
		logger,
		cfg.Delivery.Interval,
		cfg.Monitor.Interval,
		cfg.Dispatcher.ShutdownGrace,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := disp.Start(ctx); err != nil {
		logger.Fatal("failed to start dispatcher", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout * 2,
	}

	go func() {
		logger.Info("starting metrics server", zap.Int("port", cfg.Server.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down dispatcher...")
	disp.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server forced to shutdown", zap.Error(err))
	}
}
