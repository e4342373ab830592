package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	// Database
	MongoURI     string
	DatabaseName string

	// Tokens and cookies
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	CookieSecure      bool
	CookieDomain      string
	RefreshCookiePath string

	// Reads
	DefaultQueryLimit int
	MaxQueryLimit     int

	// Throttling of login and register, per client IP
	AuthRatePerMinute int
	AuthBurst         int

	Storage StorageConfig
}

type StorageConfig struct {
	Driver string // r2, gcs or none

	R2Bucket       string
	R2AccessKey    string
	R2SecretKey    string
	R2Endpoint     string
	R2PublicDomain string

	GCSBucket          string
	GCSCredentialsFile string

	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxUploadSizeMB   int
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),

		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "cragbase"),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenTTL:    time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL:   time.Duration(getEnvInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		CookieSecure:      getEnv("COOKIE_SECURE", "false") == "true",
		CookieDomain:      getEnv("COOKIE_DOMAIN", ""),
		RefreshCookiePath: getEnv("REFRESH_COOKIE_PATH", "/auth"),

		DefaultQueryLimit: getEnvInt("DEFAULT_READ_QUERY_LIMIT", 10),
		MaxQueryLimit:     getEnvInt("READ_QUERY_MAX_LIMIT", 100),

		AuthRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		AuthBurst:         getEnvInt("LOGIN_RATE_BURST", 5),

		Storage: StorageConfig{
			Driver:             strings.ToLower(getEnv("STORAGE_DRIVER", "none")),
			R2Bucket:           getEnv("R2_BUCKET", ""),
			R2AccessKey:        getEnv("R2_ACCESS_KEY_ID", ""),
			R2SecretKey:        getEnv("R2_SECRET_ACCESS_KEY", ""),
			R2Endpoint:         getEnv("R2_ENDPOINT", ""),
			R2PublicDomain:     strings.TrimRight(getEnv("R2_PUBLIC_DOMAIN", ""), "/"),
			GCSBucket:          getEnv("GCS_BUCKET", ""),
			GCSCredentialsFile: getEnv("CREDENTIALS_FILE_LOCATION", ""),
			AllowedExtensions:  getEnvList("ALLOWED_FILE_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".mp4", ".webm"}),
			AllowedMimeTypes:   getEnvList("ALLOWED_FILE_MIME_TYPES", []string{"image/jpeg", "image/png", "image/webp", "image/gif", "video/mp4", "video/webm"}),
			MaxUploadSizeMB:    getEnvInt("MAX_UPLOAD_SIZE_MB", 10),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.DefaultQueryLimit <= 0 {
		cfg.DefaultQueryLimit = 10
	}
	if cfg.MaxQueryLimit < cfg.DefaultQueryLimit {
		cfg.MaxQueryLimit = cfg.DefaultQueryLimit
	}
	switch cfg.Storage.Driver {
	case "r2", "gcs", "none":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
