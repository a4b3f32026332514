package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoster(t *testing.T) {
	roster := ParseRoster("usuario1:contraseña1, usuario2:contraseña2,broken,:nouser,vacio:")

	assert.Equal(t, map[string]string{
		"usuario1": "contraseña1",
		"usuario2": "contraseña2",
		"vacio":    "",
	}, roster)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("CATALOG_DELAY_MS", "")
	t.Setenv("SESSION_STORAGE", "")
	t.Setenv("SESSION_ROSTER", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	t.Setenv("SESSION_MAX", "")

	cfg := Load()

	assert.Equal(t, "simulated", cfg.Catalog.Source)
	assert.Equal(t, 1000, cfg.Catalog.DelayMillis)
	assert.Equal(t, "memory", cfg.Session.Storage)
	assert.Len(t, cfg.Session.Roster, 2)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "file")
	t.Setenv("CATALOG_FILE", "/tmp/productos.json")
	t.Setenv("SESSION_STORAGE", "redis")
	t.Setenv("SESSION_TTL_MINUTES", "45")
	t.Setenv("SESSION_MAX", "200")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg := Load()

	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, "/tmp/productos.json", cfg.Catalog.FilePath)
	assert.Equal(t, "redis", cfg.Session.Storage)
	assert.Equal(t, 45, cfg.Session.TTLMinutes)
	assert.Equal(t, 200, cfg.Session.MaxSessions)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}
