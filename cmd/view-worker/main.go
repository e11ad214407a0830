// Command view-worker drains profile.viewed events from Kafka into the view store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/config"
	"github.com/RehanEggSupplierdev/batchboard/internal/events"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

func main() {
	cfg := config.Load()

	observability.InitLogger("batchboard-view-worker")
	log := observability.Log
	defer log.Sync()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}
	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := services.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer store.Close(context.Background())

	views := services.NewViewService(store, nil)

	mux := chi.NewRouter()
	mux.Get("/health", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(map[string]observability.Pinger{"store": store}))
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.ServerAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info("view-worker health server listening", zap.String("addr", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server error", zap.Error(err))
		}
	}()

	log.Info("consuming profile views", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.ViewsTopic))

	// A failed write stops the reader without committing. A fresh reader rejoins
	// the group at the last committed offset, so the event is retried.
	for ctx.Err() == nil {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ViewsTopic)
		err := consumer.Run(ctx, func(ctx context.Context, ev models.ProfileViewedEvent) error {
			applyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := views.Apply(applyCtx, ev); err != nil {
				return err
			}
			observability.ProfileViewsTotal.WithLabelValues("worker").Inc()
			return nil
		})
		if cerr := consumer.Close(); cerr != nil {
			log.Warn("kafka reader close failed", zap.Error(cerr))
		}
		if err == nil {
			break
		}
		log.Warn("consumer stopped, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}

	log.Info("shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during health server shutdown", zap.Error(err))
	}
}
