package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	AdminEmail    string
	AdminPassword string
	AdminUsername string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTELEndpoint string
	CORSOrigins  []string

	UploadDir   string
	MaxUploadMB int
	MaxBodyMB   int

	RateLimitPerMinute int
	DefaultLanguage    string

	DeadlineSweepSpec    string
	WorkerConcurrency    int
	WorkerHealthPort     int
	StatsCacheTTLSeconds int
}

func Load() Config {
	// a missing .env is fine, the process env wins anyway
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: getEnv("DATABASE_URL", buildDBURL()),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@court.dz"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),
		MaxBodyMB:   getEnvInt("MAX_BODY_MB", 16),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "ar"),

		DeadlineSweepSpec:    getEnv("DEADLINE_SWEEP_SPEC", "@every 1m"),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthPort:     getEnvInt("WORKER_HEALTH_PORT", 8081),
		StatsCacheTTLSeconds: getEnvInt("STATS_CACHE_TTL_SECONDS", 15),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c Config) MaxBodyBytes() int64 {
	return int64(c.MaxBodyMB) << 20
}

func (c Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSeconds) * time.Second
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "tenderhub")
	pass := getEnv("DB_PASSWORD", "tenderhub")
	name := getEnv("DB_NAME", "tenderhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
