package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/stade-map/pkg/overlay"
	"github.com/Sternrassler/stade-map/pkg/pagination"
	"github.com/Sternrassler/stade-map/pkg/ratelimit"
	"github.com/Sternrassler/stade-map/pkg/source"
)

// config is the process configuration. Values come from the environment
// (optionally via .env) and are overridden by command-line flags.
type config struct {
	SourceURL  string
	UserAgent  string
	PageSize   int
	StepDelay  time.Duration
	RedisURL   string
	Port       string
	RadiusKm   int
	LogLevel   string
	LogPretty  bool
	Partitions []string
}

func loadConfig() config {
	return config{
		SourceURL:  getEnv("SOURCE_URL", source.DefaultBaseURL),
		UserAgent:  getEnv("USER_AGENT", "stade-map/0.1.0"),
		PageSize:   getEnvInt("PAGE_SIZE", pagination.DefaultPageSize),
		StepDelay:  getEnvDuration("STEP_DELAY", ratelimit.DefaultStepDelay),
		RedisURL:   getEnv("REDIS_URL", ""),
		Port:       getEnv("PORT", "8080"),
		RadiusKm:   getEnvInt("RADIUS_KM", overlay.DefaultRadiusKm),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvBool("LOG_PRETTY", false),
		Partitions: splitList(getEnv("PARTITIONS", "")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
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
