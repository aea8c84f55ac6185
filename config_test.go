package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, false},
		{"cert and key", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, false},
		{"port too high", func(c *Config) { c.port = 70000 }, false},
		{"zero countdown", func(c *Config) { c.countdownStep = 0 }, false},
		{"negative pause", func(c *Config) { c.roundPause = -time.Second }, false},
		{"negative timeout", func(c *Config) { c.sessionTimeout = -time.Minute }, false},
		{"negative rooms", func(c *Config) { c.maxRooms = -1 }, false},
		{"nats without subject", func(c *Config) { c.natsURL, c.natsSubject = "nats://127.0.0.1:4222", " " }, false},
		{"nats with subject", func(c *Config) { c.natsURL, c.natsSubject = "nats://127.0.0.1:4222", "kanarace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)

			if tt.ok {
				assert.NoError(t, cfg.validate())
			} else {
				assert.Error(t, cfg.validate())
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	cfg := testConfig()
	assert.True(t, cfg.originAllowed("https://anywhere.example"))

	cfg.allowedOrigins = []string{"https://kana.example"}
	assert.True(t, cfg.originAllowed("https://kana.example"))
	assert.False(t, cfg.originAllowed("https://elsewhere.example"))
	assert.True(t, cfg.originAllowed(""))

	cfg.allowedOrigins = []string{"*"}
	assert.True(t, cfg.originAllowed("https://elsewhere.example"))
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, time.Second, cfg.countdownStep)
	assert.Equal(t, 800*time.Millisecond, cfg.roundPause)
	assert.Equal(t, 1000, cfg.maxRooms)
	assert.Equal(t, "kanarace", cfg.natsSubject)
	assert.NoError(t, cfg.validate())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("KANARACE_PORT", "9090")
	t.Setenv("KANARACE_ROUND_PAUSE", "2s")
	t.Setenv("KANARACE_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 9090, cfg.port)
	assert.Equal(t, 2*time.Second, cfg.roundPause)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.allowedOrigins)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("KANARACE_PORT", "9090")

	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags([]string{"--port", "7070", "-w", "/srv/words"}))

	assert.Equal(t, 7070, cfg.port)
	assert.Equal(t, "/srv/words", cfg.words)
}
