package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvUsesConfiguredSigningKey(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "explicit-key")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "explicit-key", cfg.JWTSigningKey)
}

func TestFromEnvGeneratesSigningKeyWhenUnset(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")

	first, err := FromEnv()
	require.NoError(t, err)
	second, err := FromEnv()
	require.NoError(t, err)

	assert.NotEmpty(t, first.JWTSigningKey)
	assert.NotEqual(t, first.JWTSigningKey, second.JWTSigningKey,
		"each process gets its own random key")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("KYC_PORTAL_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "kyc.audit.events", cfg.Kafka.AuditTopic)
}

func TestFromEnvParsesKafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}
