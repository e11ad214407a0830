package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, int64(10), cfg.MaxUploadSizeMB)
}

func TestLoadLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example , https://b.example")
	t.Setenv("MODERATION_ENABLED", "true")
	t.Setenv("AUTH_RATE_LIMIT", "-3")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ModerationEnabled)
	assert.Equal(t, 20, cfg.AuthRateLimit)
}

func TestViewsViaKafka(t *testing.T) {
	cases := []struct {
		driver  string
		brokers []string
		want    bool
	}{
		{"mongo", []string{"k1:9092"}, true},
		{"mongo", nil, false},
		{"memory", []string{"k1:9092"}, false},
		{"", []string{"k1:9092"}, false},
	}
	for _, c := range cases {
		cfg := &Config{StoreDriver: c.driver, KafkaBrokers: c.brokers}
		assert.Equal(t, c.want, cfg.ViewsViaKafka(), "driver=%q brokers=%v", c.driver, c.brokers)
	}
}
