// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Defaults live in NewDefaultConfig as plain struct literals. Load overlays
// environment variables on top of them through viper, so a deployment only
// sets what differs from the defaults. Typed structs (not raw strings/maps)
// give compile-time safety everywhere the config is read.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracking TrackingConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig points at the scrap backend's REST API.
type APIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RedisConfig is optional: with an empty Addr live locations are kept in
// process memory.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	LocationTTL time.Duration
}

// KafkaConfig is optional: with no brokers lifecycle events are only logged.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// Read sources for live-location polling.
const (
	ReadSourceRedis = "redis"
	ReadSourceAPI   = "api"
)

// TrackingConfig controls both the device-side tracking session and the
// viewer-side polling.
//
// Go Learning Note — time.Duration:
// Durations are read from the environment in Go syntax ("30s", "5m") and
// parsed by viper into time.Duration, so there is no guessing about units.
type TrackingConfig struct {
	StatusCheckInterval     time.Duration // how often the session asks whether the order ended
	RedisUpdateInterval     time.Duration // how often the position is written to the KV store
	BackendSaveInterval     time.Duration // how often the position is saved to the backend
	MovementThresholdMeters float64       // minimum move before a backend save
	PollInterval            time.Duration // viewer-side live-location poll
	ReadSource              string        // "redis" or "api"
	EnrichConcurrency       int
	ActionLockTTL           time.Duration
	QueryCacheTTL           time.Duration
}

// AuthConfig selects the caller identity scheme. An empty JWTSecret enables
// the development "<userType>-<userId>" bearer token.
type AuthConfig struct {
	JWTSecret string
}

func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			LocationTTL: 2 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:      "pickup.events",
			BufferSize: 256,
		},
		Tracking: TrackingConfig{
			StatusCheckInterval:     time.Minute,
			RedisUpdateInterval:     5 * time.Minute,
			BackendSaveInterval:     30 * time.Minute,
			MovementThresholdMeters: 200,
			PollInterval:            30 * time.Second,
			ReadSource:              ReadSourceRedis,
			EnrichConcurrency:       8,
			ActionLockTTL:           60 * time.Second,
			QueryCacheTTL:           time.Minute,
		},
	}
}

// Load returns the defaults overlaid with environment variables
// (SERVER_PORT, API_BASE_URL, REDIS_ADDR, KAFKA_BROKERS, ...).
func Load() *Config {
	return load(viper.New())
}

func load(v *viper.Viper) *Config {
	cfg := NewDefaultConfig()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", cfg.Server.Port)
	v.SetDefault("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	v.SetDefault("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	v.SetDefault("API_BASE_URL", cfg.API.BaseURL)
	v.SetDefault("API_KEY", cfg.API.APIKey)
	v.SetDefault("API_TIMEOUT", cfg.API.Timeout)
	v.SetDefault("REDIS_ADDR", cfg.Redis.Addr)
	v.SetDefault("REDIS_PASSWORD", cfg.Redis.Password)
	v.SetDefault("REDIS_DB", cfg.Redis.DB)
	v.SetDefault("REDIS_LOCATION_TTL", cfg.Redis.LocationTTL)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", cfg.Kafka.Topic)
	v.SetDefault("KAFKA_BUFFER_SIZE", cfg.Kafka.BufferSize)
	v.SetDefault("TRACKING_STATUS_CHECK_INTERVAL", cfg.Tracking.StatusCheckInterval)
	v.SetDefault("TRACKING_REDIS_UPDATE_INTERVAL", cfg.Tracking.RedisUpdateInterval)
	v.SetDefault("TRACKING_BACKEND_SAVE_INTERVAL", cfg.Tracking.BackendSaveInterval)
	v.SetDefault("TRACKING_MOVEMENT_THRESHOLD_METERS", cfg.Tracking.MovementThresholdMeters)
	v.SetDefault("TRACKING_POLL_INTERVAL", cfg.Tracking.PollInterval)
	v.SetDefault("TRACKING_READ_SOURCE", cfg.Tracking.ReadSource)
	v.SetDefault("TRACKING_ENRICH_CONCURRENCY", cfg.Tracking.EnrichConcurrency)
	v.SetDefault("TRACKING_ACTION_LOCK_TTL", cfg.Tracking.ActionLockTTL)
	v.SetDefault("TRACKING_QUERY_CACHE_TTL", cfg.Tracking.QueryCacheTTL)
	v.SetDefault("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Server.Port = v.GetString("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.API.BaseURL = v.GetString("API_BASE_URL")
	cfg.API.APIKey = v.GetString("API_KEY")
	cfg.API.Timeout = v.GetDuration("API_TIMEOUT")
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.LocationTTL = v.GetDuration("REDIS_LOCATION_TTL")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Kafka.BufferSize = v.GetInt("KAFKA_BUFFER_SIZE")
	cfg.Tracking.StatusCheckInterval = v.GetDuration("TRACKING_STATUS_CHECK_INTERVAL")
	cfg.Tracking.RedisUpdateInterval = v.GetDuration("TRACKING_REDIS_UPDATE_INTERVAL")
	cfg.Tracking.BackendSaveInterval = v.GetDuration("TRACKING_BACKEND_SAVE_INTERVAL")
	cfg.Tracking.MovementThresholdMeters = v.GetFloat64("TRACKING_MOVEMENT_THRESHOLD_METERS")
	cfg.Tracking.PollInterval = v.GetDuration("TRACKING_POLL_INTERVAL")
	cfg.Tracking.ReadSource = strings.ToLower(v.GetString("TRACKING_READ_SOURCE"))
	cfg.Tracking.EnrichConcurrency = v.GetInt("TRACKING_ENRICH_CONCURRENCY")
	cfg.Tracking.ActionLockTTL = v.GetDuration("TRACKING_ACTION_LOCK_TTL")
	cfg.Tracking.QueryCacheTTL = v.GetDuration("TRACKING_QUERY_CACHE_TTL")
	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")

	return cfg
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
