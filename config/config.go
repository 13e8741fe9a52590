package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage backends selectable via STORAGE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config holds all configuration for the application. The storage backend
// and its connection target are the only knobs that affect core behavior;
// everything else is transport and integration wiring.
type Config struct {
	// Server configuration
	ServerPort string

	// Storage configuration
	StorageBackend string
	SQLitePath     string
	MongoURI       string
	MongoDB        string

	// Redis configuration (optional; disables rate limiting when absent)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Authorization gate (optional; pass-through when absent)
	JWTSecret string

	// Assistant configuration
	DeepSeekAPIKey string
	DeepSeekAPIURL string

	// Image storage
	S3Bucket  string
	AWSRegion string
}

// Load builds a Config from environment variables with development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:     getenv("PORT", "8080"),
		StorageBackend: getenv("STORAGE_BACKEND", BackendSQLite),
		SQLitePath:     getenv("SQLITE_PATH", "barkeep.db"),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getenv("MONGO_DB", "barkeep"),
		RedisHost:      os.Getenv("REDIS_HOST"),
		RedisPort:      getenv("REDIS_PORT", "6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DeepSeekAPIKey: os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekAPIURL: getenv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		S3Bucket:       os.Getenv("S3_BUCKET_NAME"),
		AWSRegion:      os.Getenv("AWS_REGION"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	if cfg.StorageBackend != BackendSQLite && cfg.StorageBackend != BackendMongo {
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q",
			BackendSQLite, BackendMongo, cfg.StorageBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
