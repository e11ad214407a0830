package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/config"
	"github.com/RehanEggSupplierdev/batchboard/internal/events"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
	"github.com/RehanEggSupplierdev/batchboard/internal/router"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
	"github.com/RehanEggSupplierdev/batchboard/internal/storage"
)

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.ServiceName)
	log := observability.Log
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := initStore(ctx, cfg, log)
	defer store.Close(context.Background())

	ready := map[string]observability.Pinger{"store": store}

	// Redis backs the profile cache, token revocation, comment sequences and
	// cross-instance fan-out. Without it everything stays in process.
	var (
		cache   services.ProfileCache
		revoked services.RevocationList
		seq     realtime.Sequencer
		broker  realtime.Broker = realtime.NewHub()
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()

		cache = &services.RedisProfileCache{R: rdb}
		revoked = &services.RedisRevocationList{R: rdb}
		seq = &realtime.RedisSequencer{R: rdb}
		rb := realtime.NewRedisBroker(rdb)
		rb.Run(ctx)
		broker = rb
		ready["redis"] = redisPinger{rdb}
		log.Info("redis enabled", zap.String("addr", cfg.RedisAddr))
	}

	var publisher services.ViewEventPublisher
	switch {
	case cfg.ViewsViaKafka():
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.ViewsTopic)
		defer producer.Close()
		publisher = producer
		log.Info("profile views go through kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.ViewsTopic))
	case len(cfg.KafkaBrokers) > 0:
		log.Warn("KAFKA_BROKERS ignored: the view worker only writes to mongo, views are recorded inline",
			zap.String("store", cfg.StoreDriver))
	}

	blobs, uploadDir := initBlobs(ctx, cfg, log)

	var moderator services.ImageModerator
	if cfg.ModerationEnabled {
		m, err := services.NewSafeSearchModerator(ctx)
		if err != nil {
			log.Fatal("failed to initialize safesearch", zap.Error(err))
		}
		moderator = m
	}

	var captcha services.CaptchaVerifier
	if cfg.RecaptchaSecret != "" {
		captcha = services.NewRecaptchaVerifier(cfg.RecaptchaSecret)
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)
	views := services.NewViewService(store, publisher)
	profiles := services.NewProfileService(store, store, views, cache, broker)
	comments := services.NewCommentService(store, store, store, broker, seq)

	handler := router.New(router.Services{
		Auth:      services.NewAuthService(store, store, tokens, revoked, cache),
		Accounts:  services.NewAccountService(store, comments, blobs, cache),
		Profiles:  profiles,
		Pages:     services.NewPageService(store, comments, profiles),
		Comments:  comments,
		Media:     services.NewMediaService(store, blobs, moderator, profiles, cfg.MaxUploadSizeMB*1024*1024),
		Dashboard: services.NewDashboardService(profiles, store, store, views),
		Broker:    broker,
		Ready:     ready,
		Captcha:   captcha,
	}, router.Options{
		ServiceName:        cfg.ServiceName,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateWindow:     cfg.AuthRateWindow,
		MaxUploadSizeMB:    cfg.MaxUploadSizeMB,
		UploadDir:          uploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("batchboard api starting", zap.String("addr", cfg.ServerAddress), zap.String("store", cfg.StoreDriver), zap.String("blobs", cfg.BlobDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
	}
	log.Info("shutdown complete, exiting")
}

func initStore(ctx context.Context, cfg *config.Config, log *zap.Logger) services.Store {
	switch cfg.StoreDriver {
	case "mongo":
		if cfg.MongoURI == "" {
			log.Fatal("MONGO_URI is required when STORE_DRIVER=mongo")
		}
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		s, err := services.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatal("failed to connect to mongo", zap.Error(err))
		}
		return s
	case "memory", "":
		if cfg.DataDir == "" {
			return services.NewMemoryStore()
		}
		js, err := storage.NewJSONStore(cfg.DataDir, "batchboard.json")
		if err != nil {
			log.Fatal("failed to open data dir", zap.String("dir", cfg.DataDir), zap.Error(err))
		}
		s, err := services.NewPersistentMemoryStore(js)
		if err != nil {
			log.Fatal("failed to load snapshot", zap.String("path", js.Path()), zap.Error(err))
		}
		return s
	default:
		log.Fatal("unknown STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
		return nil
	}
}

// initBlobs also returns the directory the router should serve, empty for remote stores.
func initBlobs(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.BlobStore, string) {
	if cfg.BlobDriver == "firebase" {
		b, err := services.NewFirebaseBlobStore(ctx, services.FirebaseConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
			Bucket:          cfg.FirebaseBucket,
		})
		if err != nil {
			log.Fatal("failed to initialize firebase storage", zap.Error(err))
		}
		return b, ""
	}

	b, err := services.NewLocalBlobStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal("failed to create upload dir", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}
	return b, cfg.UploadDir
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }
