package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "memory", cfg.Optimize)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 1.0, cfg.TimeScale)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SOUNDLINK_LOG_LEVEL", "DEBUG")
	t.Setenv("SOUNDLINK_OPTIMIZE", "speed")
	t.Setenv("SOUNDLINK_MAIN_QUEUE_SIZE", "32")
	t.Setenv("SOUNDLINK_SIM_TIME_SCALE", "0.25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "speed", cfg.Optimize)
	assert.Equal(t, 32, cfg.QueueSize)
	assert.Equal(t, 0.25, cfg.TimeScale)
}

func TestApplication_Lifecycle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.LogLevel = "ERROR"

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	// Smoke test the wired stack end to end.
	audio := application.AudioService()
	audio.OnGameObjectSpawned(1)

	done := make(chan struct{})
	event := domain.SoundEvent{Name: "smoke", Duration: 10 * time.Millisecond}
	_, err = audio.PostEventWithCallback(event, 1, domain.CallbackEndOfEvent,
		func(kind domain.CallbackType, _ *domain.CallbackInfo, _ any) {
			if kind == domain.CallbackEndOfEvent {
				close(done)
			}
		}, nil)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for end of event")
	}

	audio.OnGameObjectDestroyed(1)

	require.NoError(t, application.Shutdown())
}

func TestApplication_SpeedPolicy(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.LogLevel = "ERROR"
	cfg.Optimize = "speed"

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	audio := application.AudioService()
	audio.OnGameObjectSpawned(2)
	assert.False(t, audio.HasActiveEvents(2))

	require.NoError(t, application.Shutdown())
}
