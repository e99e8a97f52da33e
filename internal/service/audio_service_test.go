package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark/soundlink/internal/adapter/mainthread"
	"github.com/tidemark/soundlink/internal/adapter/soundengine/sim"
	"github.com/tidemark/soundlink/internal/callback"
	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/logger"
	"github.com/tidemark/soundlink/internal/testutil"
)

// Helper to create a fully wired test service on the simulated engine.
// The leak check is registered first so it runs after the teardown cleanup.
func newTestAudioService(t *testing.T) (*AudioService, *sim.Engine) {
	t.Helper()

	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	log := logger.NewTestLogger()
	dispatcher := mainthread.NewDispatcher(log, 64)
	engine := sim.NewEngine(log)
	manager := callback.NewManager(log, engine, dispatcher, callback.OptimizeMemory)

	t.Cleanup(func() {
		require.NoError(t, engine.Close())
		manager.Close()
		dispatcher.Close()
	})

	return NewAudioService(log, engine, manager), engine
}

// Helper to create a short test event
func shortEvent(name string) domain.SoundEvent {
	return domain.SoundEvent{
		Name:     name,
		Duration: 30 * time.Millisecond,
		Markers: []domain.Marker{
			{Label: "hit", Offset: 10 * time.Millisecond},
		},
	}
}

func TestAudioService_PostEvent(t *testing.T) {
	service, _ := newTestAudioService(t)

	playing, err := service.PostEvent(shortEvent("ui_click"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, domain.InvalidPlayingID, playing)

	// Nothing registered: no callback bookkeeping for the object.
	assert.False(t, service.HasActiveEvents(1))
}

func TestAudioService_PostEventWithCallback(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(42)

	kinds := make(chan domain.CallbackType, 8)
	_, err := service.PostEventWithCallback(shortEvent("explosion"), obj,
		domain.CallbackStarted|domain.CallbackEndOfEvent,
		func(kind domain.CallbackType, _ *domain.CallbackInfo, cookie any) {
			assert.Equal(t, "ctx", cookie)
			kinds <- kind
		}, "ctx")
	require.NoError(t, err)
	assert.True(t, service.HasActiveEvents(obj))

	assert.Equal(t, domain.CallbackStarted, <-kinds)
	assert.Equal(t, domain.CallbackEndOfEvent, <-kinds)

	// The terminal notification retires the registration.
	assert.Eventually(t, func() bool { return !service.HasActiveEvents(obj) },
		time.Second, 5*time.Millisecond)
}

func TestAudioService_CallbackRetiredWithoutTerminalSubscription(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(2)

	markers := make(chan string, 8)
	_, err := service.PostEventWithCallback(shortEvent("footstep"), obj,
		domain.CallbackMarker,
		func(kind domain.CallbackType, info *domain.CallbackInfo, _ any) {
			if kind == domain.CallbackMarker {
				markers <- info.MarkerLabel
			}
		}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hit", <-markers)

	// End of event still retires the registration even though the caller
	// never subscribed to it.
	assert.Eventually(t, func() bool { return !service.HasActiveEvents(obj) },
		time.Second, 5*time.Millisecond)
}

func TestAudioService_PostEventWithDelegate(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(3)

	type delivery struct {
		kind domain.EventCallbackKind
		info domain.EventCallbackInfo
	}
	deliveries := make(chan delivery, 8)

	_, err := service.PostEventWithDelegate(shortEvent("dialog_line"), obj,
		domain.CallbackStarted|domain.CallbackEndOfEvent,
		func(kind domain.EventCallbackKind, info domain.EventCallbackInfo) {
			deliveries <- delivery{kind, info}
		})
	require.NoError(t, err)

	first := <-deliveries
	assert.Equal(t, domain.KindStarted, first.kind)
	assert.Equal(t, obj, first.info.GameObject)
	assert.Equal(t, "dialog_line", first.info.EventName)

	second := <-deliveries
	assert.Equal(t, domain.KindEndOfEvent, second.kind)

	assert.Eventually(t, func() bool { return !service.HasActiveEvents(obj) },
		time.Second, 5*time.Millisecond)
}

func TestAudioService_PostEventAndWait(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(4)

	start := time.Now()
	err := service.PostEventAndWait(context.Background(), shortEvent("stinger"), obj)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond,
		"the caller stays suspended until the event finishes")
	assert.False(t, service.HasActiveEvents(obj))
}

func TestAudioService_PostEventAndWait_ContextCancelled(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	long := domain.SoundEvent{Name: "cutscene_music", Duration: 5 * time.Second}
	err := service.PostEventAndWait(ctx, long, obj)
	assert.ErrorIs(t, err, domain.ErrWaitCancelled)

	// The abandoned registration is removed, not leaked.
	assert.False(t, service.HasActiveEvents(obj))

	service.OnGameObjectDestroyed(obj)
}

func TestAudioService_PostFailureLeavesNoState(t *testing.T) {
	service, engine := newTestAudioService(t)

	const obj = domain.GameObjectID(6)
	engine.SetFailPost(true)

	_, err := service.PostEventWithCallback(shortEvent("broken"), obj,
		domain.CallbackEndOfEvent,
		func(domain.CallbackType, *domain.CallbackInfo, any) {}, nil)
	require.Error(t, err)
	assert.False(t, service.HasActiveEvents(obj), "failed post must not leave a registration")

	_, err = service.PostEventWithDelegate(shortEvent("broken"), obj,
		domain.CallbackEndOfEvent,
		func(domain.EventCallbackKind, domain.EventCallbackInfo) {})
	require.Error(t, err)
	assert.False(t, service.HasActiveEvents(obj))

	err = service.PostEventAndWait(context.Background(), shortEvent("broken"), obj)
	require.Error(t, err)
	assert.False(t, service.HasActiveEvents(obj))
}

func TestAudioService_OnGameObjectDestroyed(t *testing.T) {
	service, _ := newTestAudioService(t)

	const obj = domain.GameObjectID(7)
	service.OnGameObjectSpawned(obj)

	delivered := make(chan domain.CallbackType, 16)
	long := domain.SoundEvent{Name: "ambience", Duration: 5 * time.Second}

	for range 2 {
		_, err := service.PostEventWithCallback(long, obj,
			domain.CallbackStarted|domain.CallbackEndOfEvent,
			func(kind domain.CallbackType, _ *domain.CallbackInfo, _ any) {
				delivered <- kind
			}, nil)
		require.NoError(t, err)
	}
	require.True(t, service.HasActiveEvents(obj))

	service.OnGameObjectDestroyed(obj)

	assert.False(t, service.HasActiveEvents(obj))

	// No further delivery after teardown returns, even though the events
	// had seconds left to play.
	quiescent := len(delivered)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, quiescent, len(delivered))
}
