package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"API_PORT", "TEMPORAL_HOST", "TASK_QUEUE", "DATABASE_URL", "KAFKA_BROKERS", "KAFKA_TOPIC",
		"SUBMIT_TIMEOUT", "PAYMENT_METHOD", "ALLOW_STAGE_JUMP", "PRICE_REFRESH_CRON", "SESSION_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTemporalHost, cfg.TemporalHost)
	assert.Equal(t, DefaultTaskQueue, cfg.TaskQueue)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "booking.confirmed", cfg.KafkaTopic)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, "credit_card", cfg.PaymentMethod)
	assert.False(t, cfg.AllowStageJump)
	assert.Equal(t, "*/15 * * * *", cfg.PriceRefreshCron)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("SUBMIT_TIMEOUT", "5s")
	t.Setenv("ALLOW_STAGE_JUMP", "true")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.SubmitTimeout)
	assert.True(t, cfg.AllowStageJump)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "SUBMIT_TIMEOUT", "soon"},
		{"negative timeout", "SUBMIT_TIMEOUT", "-1s"},
		{"bad ttl", "SESSION_TTL", "forever"},
		{"bad bool", "ALLOW_STAGE_JUMP", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
