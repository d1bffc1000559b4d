package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort          string
	BaseURL           string
	DBDriver          string // "mysql" or "postgres"
	DatabaseDSN       string
	JWTSecret         string
	CORSOrigins       []string
	RedisAddress      string
	RedisPassword     string
	GeminiAPIKey      string
	StorageProvider   string // "local" or "gcs"
	UploadDir         string
	GCSBucket         string
	AllowRegistration bool
	LogLevel          string
	Location          *time.Location
}

const (
	StorageProviderLocal = "local"
	StorageProviderGCS   = "gcs"

	defaultJWTSecret = "dev_secret_key_change_me_dev_secret_key"
)

// Load reads the .env file (if any) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DatabaseDSN:       os.Getenv("DB_DSN"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisAddress:      os.Getenv("REDIS_ADDRESS"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		StorageProvider:   strings.ToLower(getEnv("STORAGE_PROVIDER", StorageProviderLocal)),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		GCSBucket:         os.Getenv("GCS_BUCKET"),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Location:          loadLocation(getEnv("TIMEZONE", "America/Caracas")),
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal("DB_DSN is not set. Please configure your database.")
	}
	if cfg.JWTSecret == "" {
		if strings.ToLower(os.Getenv("APP_ENV")) == "production" {
			log.Fatal("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		log.Println("[WARN] JWT_SECRET not set, using the development default")
	}
	if cfg.StorageProvider == StorageProviderGCS && cfg.GCSBucket == "" {
		log.Fatal("GCS_BUCKET is required when STORAGE_PROVIDER=gcs")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[WARN] unknown TIMEZONE %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}
