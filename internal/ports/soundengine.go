// Package ports defines interfaces for dependency inversion.
// These interfaces allow the callback-routing core to remain independent of
// the concrete sound engine and of the game runtime's threading model.
package ports

import (
	"github.com/tidemark/soundlink/internal/domain"
)

// EngineNotifyFunc is the notification contract the sound engine calls into.
// The engine invokes it on its own internal thread, once per notification,
// with the cookie from PostEvent copied into info.Cookie.
//
// Implementations must be safe to call concurrently with PostEvent and
// CancelEventCallbacks and must not block the engine thread for unbounded
// time.
type EngineNotifyFunc func(kind domain.CallbackType, info *domain.CallbackInfo)

// SoundEngine is the interface to the external sound engine.
// The engine is treated as a black box: soundlink posts events against game
// objects and receives typed notifications back on the engine's internal
// thread.
//
// Implementations must be thread-safe.
type SoundEngine interface {
	// PostEvent asks the engine to play an event on a game object.
	//
	// flags selects the notification kinds the engine should raise; notify
	// is invoked once per raised notification on the engine's internal
	// thread; cookie is round-tripped verbatim in every CallbackInfo so the
	// caller can correlate notifications with this post.
	//
	// Returns the engine-issued PlayingID, or InvalidPlayingID and an error
	// if the event could not be posted. On error no notifications are ever
	// raised for this call.
	PostEvent(event domain.SoundEvent, obj domain.GameObjectID, flags domain.CallbackType, notify EngineNotifyFunc, cookie any) (domain.PlayingID, error)

	// CancelEventCallbacks cancels all pending callbacks for a game object.
	//
	// It blocks until the engine guarantees that no further notifications
	// will be raised for obj. The callback manager relies on this guarantee
	// to free registration state without racing the engine thread.
	CancelEventCallbacks(obj domain.GameObjectID)

	// Close shuts the engine down, cancelling all pending callbacks for all
	// game objects. After Close returns no further notifications are raised.
	Close() error
}
