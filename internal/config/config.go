package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret []byte

	RedisAddress string
	LockTTL      time.Duration

	LogLevel    string
	CORSOrigins []string

	PortalBaseURL string
	PortalTimeout time.Duration

	OverdueSweepInterval time.Duration
}

// Load reads configs/.env when present, then the process environment.
func Load() *Config {
	_ = godotenv.Load("configs/.env")
	return FromEnv()
}

// FromEnv builds the config from environment variables only.
func FromEnv() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: jwtSecret(),

		RedisAddress: os.Getenv("REDIS_ADDRESS"),
		LockTTL:      getDuration("LOCK_TTL", 30*time.Second),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),

		PortalBaseURL: os.Getenv("PORTAL_BASE_URL"),
		PortalTimeout: getDuration("PORTAL_TIMEOUT", 15*time.Second),

		OverdueSweepInterval: getDuration("OVERDUE_SWEEP_INTERVAL", time.Hour),
	}
}

func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // development fallback only
	}
	return []byte(secret)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
