package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := load(viper.New())
	def := NewDefaultConfig()

	if cfg.Server.Port != def.Server.Port {
		t.Errorf("expected port %s, got %s", def.Server.Port, cfg.Server.Port)
	}
	if cfg.Tracking.PollInterval != 30*time.Second {
		t.Errorf("expected 30s poll interval, got %v", cfg.Tracking.PollInterval)
	}
	if cfg.Redis.LocationTTL != 2*time.Hour {
		t.Errorf("expected 2h location TTL, got %v", cfg.Redis.LocationTTL)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected no brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Tracking.ReadSource != ReadSourceRedis {
		t.Errorf("expected redis read source, got %s", cfg.Tracking.ReadSource)
	}
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("TRACKING_POLL_INTERVAL", "10s")
	t.Setenv("TRACKING_MOVEMENT_THRESHOLD_METERS", "50.5")
	t.Setenv("TRACKING_READ_SOURCE", "API")
	t.Setenv("REDIS_DB", "3")

	cfg := load(viper.New())

	if cfg.Server.Port != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Tracking.PollInterval != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.Tracking.PollInterval)
	}
	if cfg.Tracking.MovementThresholdMeters != 50.5 {
		t.Errorf("expected 50.5, got %v", cfg.Tracking.MovementThresholdMeters)
	}
	if cfg.Tracking.ReadSource != ReadSourceAPI {
		t.Errorf("expected api, got %s", cfg.Tracking.ReadSource)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("expected db 3, got %d", cfg.Redis.DB)
	}
}
