package config

import (
	"os"
	"strconv"
)

// Config holds service-level configuration read from the environment
type Config struct {
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	Port         string
	PassingScore float64 // shared pass/fail threshold for quiz and interview
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		MongoURI:     getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnvOrDefault("MONGO_DB", "prepdeck"),
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Port:         getEnvOrDefault("PORT", "8080"),
		PassingScore: getEnvFloat("PASSING_SCORE", 70),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
