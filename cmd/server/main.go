package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexanderUp/hw05-final/internal/admin"
	"github.com/AlexanderUp/hw05-final/internal/auth"
	"github.com/AlexanderUp/hw05-final/internal/config"
	"github.com/AlexanderUp/hw05-final/internal/database"
	"github.com/AlexanderUp/hw05-final/internal/events"
	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/monitoring"
	"github.com/AlexanderUp/hw05-final/internal/pagecache"
	"github.com/AlexanderUp/hw05-final/internal/post"
	"github.com/AlexanderUp/hw05-final/internal/server"
	"github.com/AlexanderUp/hw05-final/internal/storage"
	"github.com/AlexanderUp/hw05-final/internal/store"
)

func fatal(message string, err error) {
	logs.LogJSON("FATAL", message, map[string]interface{}{"error": err.Error()})
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		return store.NewMemory(), nil
	}
	if cfg.RunMigrations {
		if err := database.Migrate(cfg.DBUrl); err != nil {
			return nil, err
		}
	}
	db, err := database.Connect(cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	return store.NewGorm(db), nil
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "nats":
		nc, err := events.NewNATS(cfg.NatsURL)
		if err != nil {
			return nil, err
		}
		return nc, nil
	case "kafka":
		return events.NewKafka(cfg.KafkaBroker, cfg.KafkaTopic), nil
	default:
		return events.Nop{}, nil
	}
}

func openCache(cfg *config.Config) *pagecache.Cache {
	if cfg.CacheDriver == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return pagecache.New(pagecache.NewRedis(client, "yatube"))
	}
	return pagecache.New(pagecache.NewMemory())
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("Invalid configuration", err)
	}
	logs.Init(cfg.LogLevel)
	monitoring.Register()

	s, err := openStore(cfg)
	if err != nil {
		fatal("Error opening store", err)
	}
	defer s.Close()

	publisher, err := openPublisher(cfg)
	if err != nil {
		fatal("Error connecting to event broker", err)
	}
	defer publisher.Close()

	var images post.ImageStore
	if cfg.AWSBucket != "" {
		s3, err := storage.NewS3(context.Background(), storage.Options{
			Bucket:          cfg.AWSBucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			fatal("Error configuring S3", err)
		}
		images = s3
	}

	var (
		provider auth.Provider
		identity admin.IdentityDeleter
	)
	if cfg.Supabase != "" {
		supabase := auth.NewSupabase(cfg.Supabase, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey)
		provider = supabase
		if cfg.SupabaseServiceKey != "" {
			identity = supabase
		}
	}

	router := server.New(server.Deps{
		Store:         s,
		Cache:         openCache(cfg),
		Events:        publisher,
		Images:        images,
		Provider:      provider,
		Identity:      identity,
		JWTSecret:     []byte(cfg.JWTSecret),
		PostsPerPage:  cfg.PostsPerPage,
		IndexCacheTTL: cfg.IndexCacheTTL,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.LogJSON("INFO", "Server listening", map[string]interface{}{"addr": cfg.ServerAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logs.LogJSON("ERROR", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	logs.LogJSON("INFO", "Server stopped", nil)
}
