package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds server configuration loaded from the environment
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	JWTSecret []byte

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	// Upload quota policy: whether a failed downstream upload gives
	// its consumed slot back. Off by default - the attempt consumes
	// the slot.
	ReleaseFailedUploads bool

	OTLPEndpoint string
	OTELEnabled  bool
}

// Load reads configuration from environment variables.
// JWT_SECRET is required; everything else has defaults.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		JWTSecret: []byte(jwtSecret),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     os.Getenv("REDIS_PORT"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		ReleaseFailedUploads: getEnvBool("RELEASE_FAILED_UPLOADS", false),

		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
