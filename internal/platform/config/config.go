package config

import (
	"os"
	"strings"
	"time"

	platformstrings "rolesync/pkg/platform/strings"
)

// Config captures process-level configuration. FromEnv keeps main lean and
// defaults every knob for local development.
type Config struct {
	HTTPAddr      string
	JWTSigningKey string

	DatabaseURL string // empty selects the in-memory store
	RedisURL    string // empty disables the registry lookup cache

	KafkaBrokers []string // empty disables the change-event stream
	EventsTopic  string

	RegistryBaseURL  string
	RegistryToken    string
	RegistryCacheTTL time.Duration

	CommandPrefix  string
	ConfirmTimeout time.Duration

	// Identity used by the console gateway when no platform adapter is
	// attached.
	DevGuildID   string
	DevChannelID string
	DevAdminID   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		HTTPAddr:         envOr("ROLESYNC_HTTP_ADDR", ":8080"),
		JWTSigningKey:    envOr("ROLESYNC_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:      os.Getenv("ROLESYNC_DATABASE_URL"),
		RedisURL:         os.Getenv("ROLESYNC_REDIS_URL"),
		EventsTopic:      envOr("ROLESYNC_EVENTS_TOPIC", "rolesync.sync-links"),
		RegistryBaseURL:  envOr("ROLESYNC_REGISTRY_URL", "https://api.gumroad.com/v2"),
		RegistryToken:    os.Getenv("ROLESYNC_REGISTRY_TOKEN"),
		RegistryCacheTTL: durationOr("ROLESYNC_REGISTRY_CACHE_TTL", 5*time.Minute),
		CommandPrefix:    envOr("ROLESYNC_COMMAND_PREFIX", "!"),
		ConfirmTimeout:   durationOr("ROLESYNC_CONFIRM_TIMEOUT", 30*time.Second),
		DevGuildID:       envOr("ROLESYNC_DEV_GUILD_ID", "dev-guild"),
		DevChannelID:     envOr("ROLESYNC_DEV_CHANNEL_ID", "dev-channel"),
		DevAdminID:       envOr("ROLESYNC_DEV_ADMIN_ID", "dev-admin"),
	}
	if brokers := os.Getenv("ROLESYNC_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
