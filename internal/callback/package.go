// Package callback implements the registration and dispatch core of
// soundlink: per-game-object callback packages, the manager that owns them,
// and the entry point the sound engine's internal thread calls for every
// notification.
package callback

import (
	"sync/atomic"

	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/ports"
)

// packageKind discriminates the three registration variants.
type packageKind uint8

const (
	kindFunction packageKind = iota
	kindDelegate
	kindLatent
)

// String returns the variant name for logging.
func (k packageKind) String() string {
	switch k {
	case kindFunction:
		return "function"
	case kindDelegate:
		return "delegate"
	case kindLatent:
		return "latent"
	default:
		return "unknown"
	}
}

// CallbackPackage is one registration of interest in a game object's audio
// event notifications. It is a tagged union over the three variants: a plain
// function invoked inline on the engine thread, a delegate marshalled onto
// the game thread, and a completion flag for a suspended caller.
//
// The Manager exclusively owns every package reachable through its map;
// callers keep the pointer only as a handle for later removal. A package
// belongs to exactly one game object's set until it is retired, which
// happens exactly once: by explicit removal, by the terminal notification,
// or by unregistering the owning game object.
type CallbackPackage struct {
	// flags is the bitmask of notification kinds this registration
	// subscribes to. Immutable after construction.
	flags domain.CallbackType

	kind packageKind

	// function variant
	fn     domain.EventCallbackFunc
	cookie any

	// delegate variant
	delegate domain.PostEventDelegate
	main     ports.MainThreadDispatcher

	// latent variant
	action *EndOfEventAction

	// retired guards against double retirement. The manager's bookkeeping
	// already ensures exactly-once; this is the observable record of it.
	retired atomic.Bool
}

// Flags returns the notification kinds this package subscribes to.
func (p *CallbackPackage) Flags() domain.CallbackType {
	return p.flags
}

// handleAction delivers one notification to the registration. It is invoked
// by the manager outside its lock, only for kinds set in flags, on the sound
// engine's internal thread. It must not re-enter the manager.
func (p *CallbackPackage) handleAction(kind domain.CallbackType, info *domain.CallbackInfo) {
	switch p.kind {
	case kindFunction:
		if p.fn != nil {
			p.fn(kind, info, p.cookie)
		}
	case kindDelegate:
		if p.delegate != nil {
			// Copy everything by value before leaving this stack frame:
			// delivery happens later, on the game thread.
			delegateKind := domain.KindFromCallbackType(kind)
			delegateInfo := domain.TranslateCallbackInfo(info)
			delegate := p.delegate
			p.main.Post(func() {
				delegate(delegateKind, delegateInfo)
			})
		}
	case kindLatent:
		if p.action != nil {
			p.action.signal()
		}
	}
}

// retire marks the package as destroyed. It returns false if the package was
// already retired, which indicates a bookkeeping bug in the caller.
func (p *CallbackPackage) retire() bool {
	return p.retired.CompareAndSwap(false, true)
}

// Retired reports whether the package has been retired. Exposed for
// safe-destroy checks and tests; a retired package receives no further
// notifications.
func (p *CallbackPackage) Retired() bool {
	return p.retired.Load()
}

// EndOfEventAction is the completion flag a suspended caller polls while
// waiting for an event to finish. The latent registration variant signals it
// when the terminal notification arrives; the flag itself owns no other
// state and frees nothing.
type EndOfEventAction struct {
	done atomic.Bool
}

// NewEndOfEventAction creates an unsignalled completion flag.
func NewEndOfEventAction() *EndOfEventAction {
	return &EndOfEventAction{}
}

// Finished reports whether the event completed.
func (a *EndOfEventAction) Finished() bool {
	return a.done.Load()
}

// signal marks the event as completed. Idempotent.
func (a *EndOfEventAction) signal() {
	a.done.Store(true)
}
