package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	CORSOrigins          string
	CacheTTL             time.Duration
	InternalIDMaxRetries int
	InternalIDBackoff    time.Duration
	InternalIDMaxBackoff time.Duration
	NATSURL              string
	NATSSubject          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	cfg, err := LoadWithoutSecrets()
	if err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

// LoadWithoutSecrets reads configuration for tooling that never serves HTTP.
func LoadWithoutSecrets() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TERNAK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Ternak API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite://ternak.db")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("internal_id.max_attempts", 5)
	v.SetDefault("internal_id.initial_backoff", "10ms")
	v.SetDefault("internal_id.max_backoff", "250ms")
	v.SetDefault("nats.subject", "ternak.activities")

	ttlString := v.GetString("cache.ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	initialBackoff, err := time.ParseDuration(v.GetString("internal_id.initial_backoff"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid internal id initial backoff: %w", err)
	}

	maxBackoff, err := time.ParseDuration(v.GetString("internal_id.max_backoff"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid internal id max backoff: %w", err)
	}
	if maxBackoff < initialBackoff {
		maxBackoff = initialBackoff
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		CORSOrigins:          v.GetString("cors.origins"),
		CacheTTL:             ttl,
		InternalIDMaxRetries: v.GetInt("internal_id.max_attempts"),
		InternalIDBackoff:    initialBackoff,
		InternalIDMaxBackoff: maxBackoff,
		NATSURL:              v.GetString("nats.url"),
		NATSSubject:          v.GetString("nats.subject"),
	}

	if cfg.InternalIDMaxRetries <= 0 {
		cfg.InternalIDMaxRetries = 5
	}

	return cfg, nil
}
