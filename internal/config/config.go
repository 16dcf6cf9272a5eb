package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API and pipeline workers.
type Config struct {
	Port string

	AuthToken string

	CORSAllowedOrigins []string

	DatabaseURL string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisStreamPrefix string
	RedisGroup        string
	RedisConsumer     string

	QueueMaxAttempts int

	NewsAPIKey     string
	NewsAPIBaseURL string
	NewsTimeoutMS  int

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiModel      string
	GeminiTimeoutMS  int
	GeminiMaxRetries int

	SummarizerRPS   float64
	SummarizerBurst int

	StageWorkers int

	RateLimitRPS   float64
	RateLimitBurst int

	WorkerEnabled bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken: getEnv("API_AUTH_TOKEN", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisStreamPrefix: getEnv("REDIS_STREAM_PREFIX", "research"),
		RedisGroup:        getEnv("REDIS_GROUP", "research_workers"),
		RedisConsumer:     getEnv("REDIS_CONSUMER", "worker-1"),

		QueueMaxAttempts: getEnvInt("QUEUE_MAX_ATTEMPTS", 3),

		NewsAPIKey:     getEnv("NEWS_API_KEY", ""),
		NewsAPIBaseURL: getEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
		NewsTimeoutMS:  getEnvInt("NEWS_TIMEOUT_MS", 10000),

		GeminiAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeoutMS:  getEnvInt("GEMINI_TIMEOUT_MS", 30000),
		GeminiMaxRetries: getEnvInt("GEMINI_MAX_RETRIES", 2),

		SummarizerRPS:   getEnvFloat("SUMMARIZER_RPS", 2),
		SummarizerBurst: getEnvInt("SUMMARIZER_BURST", 1),

		StageWorkers: getEnvInt("STAGE_WORKERS", 2),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
