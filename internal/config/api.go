package config

import "time"

// Config holds runtime configuration for the dashboard API service.
type Config struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	LogLevel           string
	SessionTTL         time.Duration
	RememberMeTTL      time.Duration
	AgentToken         string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
	DockerCollect      bool
	DockerHost         string
	CollectInterval    time.Duration
	NodeName           string
}

// Load constructs a Config from environment variables.
func Load() Config {
	return Config{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":8000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://dashboard:dashboard@db:5432/dashboard?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		SessionTTL:         time.Duration(GetInt("SESSION_TTL_HOURS", 4)) * time.Hour,
		RememberMeTTL:      time.Duration(GetInt("REMEMBER_ME_TTL_HOURS", 168)) * time.Hour,
		AgentToken:         GetString("AGENT_TOKEN", ""),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASS", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
		DockerCollect:      GetBool("DOCKER_COLLECT", false),
		DockerHost:         GetString("DOCKER_HOST_OVERRIDE", ""),
		CollectInterval:    time.Duration(GetInt("COLLECT_INTERVAL_SEC", 30)) * time.Second,
		NodeName:           GetString("NODE_NAME", "docker-host-01"),
	}
}
