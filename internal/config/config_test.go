package config_test

import (
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 8081, cfg.ChatPort)
	assert.Equal(t, 10, cfg.RoomCapacity)
	assert.Equal(t, 64, cfg.MailboxSize)
	assert.Equal(t, 16, cfg.AcceptBacklog)
	assert.Equal(t, 5*time.Second, cfg.WriteWait)
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 5*time.Second, cfg.RouteTimeout)
	assert.Equal(t, "kick", cfg.Backpressure)
	assert.Equal(t, ":memory:", cfg.DBPath)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("CHAT_MAILBOX_SIZE", "8")
	t.Setenv("CHAT_BACKPRESSURE", "drop")
	t.Setenv("CHAT_PORT", "9000")

	cfg, err := config.Load([]string{"--port", "9100", "--room-capacity", "3", "--db-path", "/tmp/chat.db"})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MailboxSize)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 9100, cfg.Port, "flags win over environment")
	assert.Equal(t, 3, cfg.RoomCapacity)
	assert.Equal(t, "/tmp/chat.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	_, err := config.Load([]string{"--room-capacity", "0"})
	assert.Error(t, err)

	_, err = config.Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}
