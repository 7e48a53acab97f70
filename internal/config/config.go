package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// AuthConfig holds session and token settings
type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool
	AdminUsername string // Optional admin seeded at startup
	AdminPassword string
}

// SessionStoreConfig selects where server-side sessions live
type SessionStoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// StorageConfig holds upload settings
type StorageConfig struct {
	Backend             string
	UploadsDir          string
	MaxUploadBytes      int64
	RemoveFilesOnDelete bool
	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3AccessKey         string
	S3SecretKey         string
}

// AppConfig is the full application configuration
type AppConfig struct {
	ServerPort string
	DB         *DBConfig
	Auth       AuthConfig
	Sessions   SessionStoreConfig
	Storage    StorageConfig
}

// LoadConfig reads the application configuration from environment variables.
// Every problem is collected so a single run reports all of them.
func LoadConfig() (*AppConfig, error) {
	var problems []string

	dbCfg, err := LoadDBConfig()
	if err != nil {
		problems = append(problems, err.Error())
	}

	cfg := &AppConfig{
		ServerPort: getOptionalEnv("SERVER_PORT", "8080"),
		DB:         dbCfg,
		Auth: AuthConfig{
			JWTSecret:     getRequiredEnv("JWT_SECRET_KEY", &problems),
			SessionTTL:    getOptionalEnvDuration("SESSION_TTL", 30*time.Minute, &problems),
			CookieName:    getOptionalEnv("SESSION_COOKIE_NAME", "session_token"),
			CookieSecure:  getOptionalEnvBool("SESSION_COOKIE_SECURE", false, &problems),
			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Sessions: SessionStoreConfig{
			Backend:       strings.ToLower(getOptionalEnv("SESSION_BACKEND", SessionBackendMemory)),
			RedisAddr:     getOptionalEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getOptionalEnvInt("REDIS_DB", 0, &problems),
		},
		Storage: StorageConfig{
			Backend:             strings.ToLower(getOptionalEnv("STORAGE_BACKEND", StorageBackendLocal)),
			UploadsDir:          getOptionalEnv("UPLOADS_DIR", "uploads"),
			MaxUploadBytes:      int64(getOptionalEnvInt("UPLOAD_MAX_BYTES", 10*1024*1024, &problems)),
			RemoveFilesOnDelete: getOptionalEnvBool("REMOVE_FILES_ON_DELETE", false, &problems),
			S3Bucket:            os.Getenv("S3_BUCKET"),
			S3Region:            getOptionalEnv("S3_REGION", "us-east-1"),
			S3Endpoint:          os.Getenv("S3_ENDPOINT"),
			S3AccessKey:         os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey:         os.Getenv("S3_SECRET_KEY"),
		},
	}

	if cfg.Auth.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if (cfg.Auth.AdminUsername == "") != (cfg.Auth.AdminPassword == "") {
		problems = append(problems, "ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	switch cfg.Sessions.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown SESSION_BACKEND %q (want memory or redis)", cfg.Sessions.Backend))
	}

	switch cfg.Storage.Backend {
	case StorageBackendLocal:
	case StorageBackendS3:
		if cfg.Storage.S3Bucket == "" {
			problems = append(problems, "S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_BACKEND %q (want local or s3)", cfg.Storage.Backend))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return cfg, nil
}

func getRequiredEnv(key string, problems *[]string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		*problems = append(*problems, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, problems *[]string) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected integer, got %q", key, valueStr))
		return defaultValue
	}
	return value
}

func getOptionalEnvBool(key string, defaultValue bool, problems *[]string) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected boolean, got %q", key, valueStr))
		return defaultValue
	}
	return value
}

func getOptionalEnvDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected duration like 30m, got %q", key, valueStr))
		return defaultValue
	}
	return value
}
