package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL_SEC", "")
	t.Setenv("NOTIFY_CHANNEL_ID", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultPollIntervalSec, cfg.PollInterval)
	assert.Equal(t, DefaultChannelID, cfg.ChannelID)
	assert.False(t, cfg.ForcePolling)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHAT_ID", "-100123")
	t.Setenv("FORCE_POLLING", "true")
	t.Setenv("DISPATCH_INTERVAL_SEC", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(-100123), cfg.ChatID)
	assert.True(t, cfg.ForcePolling)
	assert.Equal(t, DefaultDispatchIntervalSec, cfg.DispatchInterval)
}
