package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"kycportal/pkg/secrets"
)

// Server captures process level configuration sourced from the environment.
type Server struct {
	Addr          string
	JWTSigningKey string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig carries connection tuning for the optional Redis store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries broker addresses for the audit publisher. An empty
// broker list disables publishing and events stay in the outbox.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	addr := os.Getenv("KYC_PORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Without a configured key, mint a per-process random one. Tokens do
		// not survive a restart in that mode, which is fine for development.
		key, err := secrets.Generate()
		if err != nil {
			return Server{}, fmt.Errorf("generate jwt signing key: %w", err)
		}
		jwtSigningKey = key
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "kyc.audit.events"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	cfg := Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    brokers,
			AuditTopic: topic,
		},
	}
	return cfg, nil
}
