package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	TorrentDataDir    string
	StatsIntervalSecs int64
	MPVEnabled        bool
	RateLimitRPS      float64
	RateLimitBurst    int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		TorrentDataDir:    getEnv("TORRENT_DATA_DIR", "data"),
		StatsIntervalSecs: getEnvInt64("SWARM_STATS_INTERVAL_SECONDS", 1),
		MPVEnabled:        getEnvBool("MPV_ENABLED", true),
		RateLimitRPS:      float64(getEnvInt64("RATE_LIMIT_RPS", 50)),
		RateLimitBurst:    int(getEnvInt64("RATE_LIMIT_BURST", 100)),
	}
}

// StatsInterval is the swarm statistics poll period.
func (c Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
