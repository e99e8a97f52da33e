// Package service provides the game-facing API of soundlink.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidemark/soundlink/internal/callback"
	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/ports"
)

// completionPollInterval is how often PostEventAndWait checks the
// completion flag while the caller is suspended.
const completionPollInterval = 10 * time.Millisecond

// AudioService orchestrates event posting against the sound engine and the
// lifecycle of callback registrations. Game code talks to this service;
// the callback manager and engine stay behind it.
//
// All operations are thread-safe.
type AudioService struct {
	logger  *slog.Logger
	engine  ports.SoundEngine
	manager *callback.Manager
}

// NewAudioService creates a new audio service.
func NewAudioService(logger *slog.Logger, engine ports.SoundEngine, manager *callback.Manager) *AudioService {
	service := &AudioService{
		logger:  logger,
		engine:  engine,
		manager: manager,
	}

	logger.Debug("audio service initialized")

	return service
}

// PostEvent posts an event with no callback registration.
func (s *AudioService) PostEvent(event domain.SoundEvent, obj domain.GameObjectID) (domain.PlayingID, error) {
	playing, err := s.engine.PostEvent(event, obj, 0, nil, nil)
	if err != nil {
		s.logger.Debug("post event failed",
			slog.String("event", event.Name), slog.Any("error", err))
		return domain.InvalidPlayingID, err
	}
	return playing, nil
}

// PostEventWithCallback posts an event and registers fn for the requested
// notification kinds. fn runs synchronously on the engine's internal thread
// with cookie passed through explicitly; it must return quickly.
//
// The terminal notification is always requested from the engine, whether or
// not the caller subscribed to it, so the registration is retired when the
// event ends.
func (s *AudioService) PostEventWithCallback(event domain.SoundEvent, obj domain.GameObjectID, flags domain.CallbackType, fn domain.EventCallbackFunc, cookie any) (domain.PlayingID, error) {
	pkg, err := s.manager.NewFunctionPackage(fn, cookie, flags, obj)
	if err != nil {
		return domain.InvalidPlayingID, err
	}
	return s.post(event, obj, flags, pkg)
}

// PostEventWithDelegate posts an event and registers a delegate for the
// requested notification kinds. The delegate is invoked asynchronously on
// the game thread with a by-value payload.
func (s *AudioService) PostEventWithDelegate(event domain.SoundEvent, obj domain.GameObjectID, flags domain.CallbackType, delegate domain.PostEventDelegate) (domain.PlayingID, error) {
	pkg, err := s.manager.NewDelegatePackage(delegate, flags, obj)
	if err != nil {
		return domain.InvalidPlayingID, err
	}
	return s.post(event, obj, flags, pkg)
}

// PostEventAndWait posts an event and blocks the caller until it finishes
// playing or ctx ends. On early ctx exit the registration is removed and
// ErrWaitCancelled is returned; the event itself keeps playing.
func (s *AudioService) PostEventAndWait(ctx context.Context, event domain.SoundEvent, obj domain.GameObjectID) error {
	action := callback.NewEndOfEventAction()

	pkg, err := s.manager.NewLatentPackage(action, obj)
	if err != nil {
		return err
	}

	if _, err := s.post(event, obj, 0, pkg); err != nil {
		return err
	}

	ticker := time.NewTicker(completionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.manager.RemovePackage(pkg, obj)
			return domain.ErrWaitCancelled
		case <-ticker.C:
			if action.Finished() {
				return nil
			}
		}
	}
}

// post hands the event to the engine with the package as the correlation
// cookie. The terminal kind is always added to the engine-side mask so the
// manager can retire the registration; delivery to the caller still honors
// only the subscribed flags. A failed post removes the registration again,
// leaving no partial state.
func (s *AudioService) post(event domain.SoundEvent, obj domain.GameObjectID, flags domain.CallbackType, pkg *callback.CallbackPackage) (domain.PlayingID, error) {
	engineFlags := flags | domain.CallbackEndOfEvent

	playing, err := s.engine.PostEvent(event, obj, engineFlags, s.manager.DispatchCallback, pkg)
	if err != nil {
		s.manager.RemovePackage(pkg, obj)
		s.logger.Debug("post event failed, registration removed",
			slog.String("event", event.Name),
			slog.Uint64("game_object", uint64(obj)),
			slog.Any("error", err))
		return domain.InvalidPlayingID, err
	}

	return playing, nil
}

// OnGameObjectSpawned should be called when a game object comes alive.
// It lets the callback manager pre-reserve registration capacity under the
// speed policy.
func (s *AudioService) OnGameObjectSpawned(obj domain.GameObjectID) {
	s.manager.RegisterGameObject(obj)
}

// OnGameObjectDestroyed should be called when a game object is torn down.
// It blocks until the engine has cancelled every pending callback for the
// object, then frees all of its registrations.
func (s *AudioService) OnGameObjectDestroyed(obj domain.GameObjectID) {
	s.manager.UnregisterGameObject(obj)
}

// HasActiveEvents reports whether a game object still has registrations in
// flight. Object teardown should be deferred while it returns true.
func (s *AudioService) HasActiveEvents(obj domain.GameObjectID) bool {
	return s.manager.HasActiveEvents(obj)
}
