package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "REDIS_ADDR", "KAFKA_BROKERS", "AMQP_URL", "SHIFT_MAX_AGE", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8081", cfg.Port)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 18*time.Hour, cfg.ShiftMaxAge)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SHIFT_MAX_AGE", "12h")
	t.Setenv("LOOKUP_TIMEOUT", "not-a-duration")
	t.Setenv("ORDER_NUMBER_PREFIX", "B1")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 12*time.Hour, cfg.ShiftMaxAge)
	assert.Equal(t, 2*time.Second, cfg.LookupTimeout)
	assert.Equal(t, "B1", cfg.OrderNumberPrefix)
}
