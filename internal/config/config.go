package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	// Stockage
	StoreDriver   string // "postgres" ou "memory"
	DBUrl         string
	RunMigrations bool

	// Authentification (Supabase)
	JWTSecret          string
	Supabase           string
	SupabaseAnonKey    string
	SupabaseServiceKey string // optionnel : suppression des comptes Supabase

	// Flux
	PostsPerPage  int
	IndexCacheTTL time.Duration

	// Cache de pages
	CacheDriver   string // "memory" ou "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Événements
	EventsDriver string // "none", "nats" ou "kafka"
	NatsURL      string
	KafkaBroker  string
	KafkaTopic   string

	// Images (S3)
	AWSBucket          string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load lit le .env (s'il existe), les variables d'environnement et un
// éventuel config.yaml, puis valide le résultat.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("POSTS_PER_PAGE", 10)
	v.SetDefault("INDEX_CACHE_TTL", "20s")
	v.SetDefault("CACHE_DRIVER", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_DRIVER", "none")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("KAFKA_BROKER", "localhost:29092")
	v.SetDefault("KAFKA_TOPIC", "yatube-events")

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // fichier optionnel

	cfg := &Config{
		ServerAddr:         v.GetString("SERVER_ADDR"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		StoreDriver:        v.GetString("STORE_DRIVER"),
		DBUrl:              v.GetString("SUPABASE_DB_URL"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		Supabase:           v.GetString("NEXT_PUBLIC_SUPABASE_URL"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
		PostsPerPage:       v.GetInt("POSTS_PER_PAGE"),
		IndexCacheTTL:      parseDuration(v.GetString("INDEX_CACHE_TTL"), 20*time.Second),
		CacheDriver:        v.GetString("CACHE_DRIVER"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		EventsDriver:       v.GetString("EVENTS_DRIVER"),
		NatsURL:            v.GetString("NATS_URL"),
		KafkaBroker:        v.GetString("KAFKA_BROKER"),
		KafkaTopic:         v.GetString("KAFKA_TOPIC"),
		AWSBucket:          v.GetString("AWS_BUCKET_NAME"),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostsPerPage <= 0 {
		return fmt.Errorf("POSTS_PER_PAGE doit être positif (reçu %d)", c.PostsPerPage)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET manquant")
	}
	switch c.StoreDriver {
	case "postgres":
		if c.DBUrl == "" {
			return errors.New("SUPABASE_DB_URL manquant")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER inconnu: %q", c.StoreDriver)
	}
	switch c.CacheDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_DRIVER inconnu: %q", c.CacheDriver)
	}
	switch c.EventsDriver {
	case "none", "nats", "kafka":
	default:
		return fmt.Errorf("EVENTS_DRIVER inconnu: %q", c.EventsDriver)
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
