package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	ServiceName    string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations and LISTEN
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Supabase SupabaseConfig

	RedisAddr    string
	KafkaBrokers []string

	// AllowedOrigins is a comma-separated allowlist of portal origins. Example:
	//   https://hostel.example.com,http://localhost:5173
	AllowedOrigins []string

	// OccupancySyncInterval controls how often room status is refreshed from bookings.
	// Zero disables the job.
	OccupancySyncInterval time.Duration

	Billing BillingConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type SupabaseConfig struct {
	URL string

	// JWTSecret is the project's JWT secret; access tokens are HS256-signed with it.
	JWTSecret string

	// Audience expected in access tokens. Supabase issues "authenticated".
	Audience string
}

type BillingConfig struct {
	ConsumerGroup string
	Workers       int
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		ServiceName:    env("SERVICE_NAME", "hostel-api"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "hostel"),
			User:     env("DB_USER", "hostel"),
			Password: env("DB_PASSWORD", "hostel"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Supabase: SupabaseConfig{
			URL:       os.Getenv("SUPABASE_URL"),
			JWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
			Audience:  env("SUPABASE_JWT_AUDIENCE", "authenticated"),
		},
		RedisAddr:             env("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:          envList("KAFKA_BROKERS", "localhost:9092"),
		AllowedOrigins:        envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080"),
		OccupancySyncInterval: envDuration("OCCUPANCY_SYNC_INTERVAL", 15*time.Minute),
		Billing: BillingConfig{
			ConsumerGroup: env("BILLING_GROUP", "billing-accrual"),
			Workers:       envInt("BILLING_WORKERS", 4),
		},
	}
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
