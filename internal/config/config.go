package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// SessionPolicy controls what happens to a user's existing token families on login.
type SessionPolicy string

const (
	// SessionPolicySingle revokes every earlier family when the user logs in again.
	SessionPolicySingle SessionPolicy = "single"
	// SessionPolicyMulti keeps earlier families alive (one family per device).
	SessionPolicyMulti SessionPolicy = "multi"
)

type Config struct {
	AppEnv                 string
	LogLevel               slog.Level
	ApiServicePort         string
	ApiGrpcPort            string
	PostgreSQLHost         string
	PostgreSQLPort         int64
	PostgreSQLUser         string
	PostgreSQLPassword     string
	PostgreSQLDatabase     string
	JWTSecret              string
	JWTIssuer              string
	AccessTokenExpiration  int64 // Access token lifetime in seconds
	RefreshTokenExpiration int64 // Refresh token lifetime in seconds
	SessionPolicy          SessionPolicy
	RedisHost              string
	RedisPort              int64
	RedisPassword          string
	RedisDB                int64
	AuthRateLimitPerMinute int64
	SecurityEventTTL       int64 // Breach event retention in Redis, seconds
	TokenCleanupInterval   int64 // Seconds between retention sweeps
	TokenRetention         int64 // Seconds an expired token is kept before deletion
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),                  // Default development
		LogLevel:               getLogLevel(),                                     // Default INFO
		ApiServicePort:         getEnv("API_SERVICE_PORT", "8080"),                // Default 8080
		ApiGrpcPort:            getEnv("API_GRPC_PORT", "50053"),                  // Default 50053
		PostgreSQLHost:         getEnv("POSTGRESQL_HOST", "db"),                   // Default db
		PostgreSQLPort:         getEnvAsInt64("POSTGRESQL_PORT", 5432),            // Default 5432
		PostgreSQLUser:         getEnv("POSTGRESQL_USER", "studyai_user"),         // Default user
		PostgreSQLPassword:     getEnv("POSTGRESQL_PASSWORD", "studyai_password"), // Default password
		PostgreSQLDatabase:     getEnv("POSTGRESQL_DATABASE", "studyai_db"),       // Default database name
		JWTSecret:              getEnv("JWT_SECRET", "studyai_secret"),            // Default secret key
		JWTIssuer:              getEnv("JWT_ISSUER", "studyai-auth"),              // Default issuer
		AccessTokenExpiration:  getEnvAsInt64("ACCESS_TOKEN_EXPIRATION", 900),     // Default 15 minutes
		RefreshTokenExpiration: getEnvAsInt64("REFRESH_TOKEN_EXPIRATION", 604800), // Default 7 days
		SessionPolicy:          getSessionPolicy(),                                // Default single
		RedisHost:              getEnv("REDIS_HOST", "redis"),                     // Default redis
		RedisPort:              getEnvAsInt64("REDIS_PORT", 6379),                 // Default 6379
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),                      // Default empty
		RedisDB:                getEnvAsInt64("REDIS_DATABASE", 0),                // Default 0
		AuthRateLimitPerMinute: getEnvAsInt64("AUTH_RATE_LIMIT_PER_MINUTE", 30),   // Default 30 requests
		SecurityEventTTL:       getEnvAsInt64("SECURITY_EVENT_TTL", 2592000),      // Default 30 days
		TokenCleanupInterval:   getEnvAsInt64("TOKEN_CLEANUP_INTERVAL", 3600),     // Default 1 hour
		TokenRetention:         getEnvAsInt64("TOKEN_RETENTION", 2592000),         // Default 30 days
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getSessionPolicy() SessionPolicy {
	switch strings.ToLower(getEnv("SESSION_POLICY", string(SessionPolicySingle))) {
	case string(SessionPolicyMulti):
		return SessionPolicyMulti
	default:
		return SessionPolicySingle
	}
}
