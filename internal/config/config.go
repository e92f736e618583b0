package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateTTL      time.Duration

	// Sign in with Apple (native identity tokens)
	AppleClientIDs []string

	// Where the browser lands after the Google callback. Empty means JSON response.
	FrontendURL string

	// Picture storage (S3 compatible)
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicURL     string
	PictureMaxBytes int
	PictureSize     int

	// Rate limiting
	RedisURL         string
	RateLimitGeneral int
	RateLimitAuth    int
	RateLimitUpload  int
	RateLimitWindow  time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
	SentryDSN   string
	AppEnv      string
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "accounts_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTExpiry:  parseDuration(getEnv("JWT_EXPIRY", "168h"), 7*24*time.Hour),
		BcryptCost: parseInt(getEnv("BCRYPT_COST", "12"), 12),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		OAuthStateTTL:      parseDuration(getEnv("OAUTH_STATE_TTL", "10m"), 10*time.Minute),

		AppleClientIDs: ParseCSV(getEnv("APPLE_CLIENT_IDS", "")),

		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", ""), "/"),

		S3Bucket:        getEnv("S3_BUCKET", "profile-pictures"),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:     strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		PictureMaxBytes: parseInt(getEnv("PICTURE_MAX_BYTES", "5242880"), 5<<20),
		PictureSize:     parseInt(getEnv("PICTURE_SIZE", "500"), 500),

		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimitGeneral: parseInt(getEnv("RATE_LIMIT_GENERAL", "100"), 100),
		RateLimitAuth:    parseInt(getEnv("RATE_LIMIT_AUTH", "10"), 10),
		RateLimitUpload:  parseInt(getEnv("RATE_LIMIT_UPLOAD", "5"), 5),
		RateLimitWindow:  parseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// GoogleEnabled reports whether the Google OAuth flow can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
