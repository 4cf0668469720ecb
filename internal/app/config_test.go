package app

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Clear all env vars that LoadConfig reads so we get pure defaults.
	envVars := []string{
		"HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "TORRENT_DATA_DIR",
		"SWARM_STATS_INTERVAL_SECONDS", "MPV_ENABLED",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"TorrentDataDir", cfg.TorrentDataDir, "data"},
		{"StatsIntervalSecs", cfg.StatsIntervalSecs, int64(1)},
		{"MPVEnabled", cfg.MPVEnabled, true},
		{"RateLimitRPS", cfg.RateLimitRPS, float64(50)},
		{"RateLimitBurst", cfg.RateLimitBurst, 100},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if cfg.StatsInterval() != time.Second {
		t.Errorf("StatsInterval = %v, want 1s", cfg.StatsInterval())
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SWARM_STATS_INTERVAL_SECONDS", "5")
	t.Setenv("MPV_ENABLED", "off")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lowercased debug", cfg.LogLevel)
	}
	if cfg.StatsIntervalSecs != 5 {
		t.Errorf("StatsIntervalSecs = %d", cfg.StatsIntervalSecs)
	}
	if cfg.MPVEnabled {
		t.Error("MPVEnabled should be false for off")
	}
}

func TestGetEnvInt64RejectsGarbage(t *testing.T) {
	t.Setenv("SWARM_STATS_INTERVAL_SECONDS", "not-a-number")
	if got := LoadConfig().StatsIntervalSecs; got != 1 {
		t.Errorf("garbage value should fall back to default, got %d", got)
	}

	t.Setenv("SWARM_STATS_INTERVAL_SECONDS", "-3")
	if got := LoadConfig().StatsIntervalSecs; got != 1 {
		t.Errorf("negative value should fall back to default, got %d", got)
	}
}
