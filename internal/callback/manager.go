package callback

import (
	"log/slog"
	"sync"

	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/ports"
)

// Policy selects the memory/speed trade-off for per-object package sets.
type Policy int

const (
	// OptimizeMemory prunes a game object's set from the map as soon as it
	// empties, minimizing resident state.
	OptimizeMemory Policy = iota

	// OptimizeSpeed pre-reserves set capacity on RegisterGameObject and
	// retains empty sets, minimizing reallocation while events churn.
	OptimizeSpeed
)

// reserveSize is the expected number of simultaneously playing events on a
// single game object under OptimizeSpeed.
const reserveSize = 8

// packageSet holds the registrations owned by one game object.
type packageSet map[*CallbackPackage]struct{}

// Manager owns every callback package and routes sound engine notifications
// back to them. It is the one place where the game thread (creating,
// removing, registering, unregistering) and the engine's internal thread
// (DispatchCallback) meet.
//
// Locking discipline: mu guards only the map and set bookkeeping. It is
// never held while a package's handleAction runs and never while packages
// are retired, bounding the engine thread's lock hold time to pointer
// operations.
type Manager struct {
	logger *slog.Logger
	engine ports.SoundEngine
	main   ports.MainThreadDispatcher
	policy Policy

	mu       sync.Mutex
	packages map[domain.GameObjectID]packageSet
	closed   bool
}

// NewManager creates a callback manager bound to a sound engine and a game
// thread dispatcher.
func NewManager(logger *slog.Logger, engine ports.SoundEngine, main ports.MainThreadDispatcher, policy Policy) *Manager {
	m := &Manager{
		logger:   logger,
		engine:   engine,
		main:     main,
		policy:   policy,
		packages: make(map[domain.GameObjectID]packageSet),
	}

	logger.Debug("callback manager initialized", slog.Int("policy", int(policy)))

	return m
}

// NewFunctionPackage registers a plain function callback for a game object.
// fn is invoked synchronously on the engine's internal thread with cookie
// passed through explicitly. The manager owns the returned package; the
// caller keeps it only as a handle for RemovePackage.
func (m *Manager) NewFunctionPackage(fn domain.EventCallbackFunc, cookie any, flags domain.CallbackType, obj domain.GameObjectID) (*CallbackPackage, error) {
	if fn == nil {
		return nil, domain.ErrNilCallback
	}
	pkg := &CallbackPackage{
		flags:  flags,
		kind:   kindFunction,
		fn:     fn,
		cookie: cookie,
	}
	return m.insert(pkg, obj)
}

// NewDelegatePackage registers a delegate for a game object. The delegate is
// invoked asynchronously on the game thread with a by-value translation of
// each notification.
func (m *Manager) NewDelegatePackage(delegate domain.PostEventDelegate, flags domain.CallbackType, obj domain.GameObjectID) (*CallbackPackage, error) {
	if delegate == nil {
		return nil, domain.ErrNilCallback
	}
	pkg := &CallbackPackage{
		flags:    flags,
		kind:     kindDelegate,
		delegate: delegate,
		main:     m.main,
	}
	return m.insert(pkg, obj)
}

// NewLatentPackage registers a completion flag for a game object. The flag
// is signalled when the event's terminal notification arrives; the package
// subscribes to nothing else.
func (m *Manager) NewLatentPackage(action *EndOfEventAction, obj domain.GameObjectID) (*CallbackPackage, error) {
	if action == nil {
		return nil, domain.ErrNilCallback
	}
	pkg := &CallbackPackage{
		flags:  domain.CallbackEndOfEvent,
		kind:   kindLatent,
		action: action,
	}
	return m.insert(pkg, obj)
}

// insert validates the registration and adds it to obj's set under lock.
// A failed insert leaves no partial state behind.
func (m *Manager) insert(pkg *CallbackPackage, obj domain.GameObjectID) (*CallbackPackage, error) {
	if obj == domain.InvalidGameObjectID {
		return nil, domain.ErrInvalidGameObject
	}
	if pkg.flags == 0 {
		return nil, domain.ErrInvalidFlags
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrManagerClosed
	}

	set := m.packages[obj]
	if set == nil {
		set = make(packageSet)
		m.packages[obj] = set
	}
	set[pkg] = struct{}{}

	m.logger.Debug("callback package created",
		slog.Uint64("game_object", uint64(obj)),
		slog.String("variant", pkg.kind.String()),
		slog.String("flags", pkg.flags.String()))

	return pkg, nil
}

// RemovePackage removes a registration from a game object's set. The package
// is retired outside the lock, and only if this call actually removed it, so
// a remove racing the terminal notification never retires twice.
func (m *Manager) RemovePackage(pkg *CallbackPackage, obj domain.GameObjectID) {
	if pkg == nil {
		return
	}

	removed := false

	m.mu.Lock()
	if set, ok := m.packages[obj]; ok {
		if _, in := set[pkg]; in {
			m.removeFromSet(set, pkg, obj)
			removed = true
		}
	}
	m.mu.Unlock()

	if removed {
		m.retirePackage(pkg, obj)
	}
}

// RegisterGameObject hints that a game object is about to post events.
// Under OptimizeSpeed it pre-reserves the object's set; under OptimizeMemory
// it is a no-op.
func (m *Manager) RegisterGameObject(obj domain.GameObjectID) {
	if m.policy != OptimizeSpeed || obj == domain.InvalidGameObjectID {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if _, ok := m.packages[obj]; !ok {
		m.packages[obj] = make(packageSet, reserveSize)
	}
}

// UnregisterGameObject tears down all registrations for a game object.
//
// It first instructs the engine to cancel every pending callback for obj and
// blocks until the engine guarantees no further notifications will arrive.
// Only then does it detach and retire the object's packages. Cancel before
// free, never the reverse: otherwise a notification could race freed state.
func (m *Manager) UnregisterGameObject(obj domain.GameObjectID) {
	m.engine.CancelEventCallbacks(obj)

	var detached []*CallbackPackage

	m.mu.Lock()
	if set, ok := m.packages[obj]; ok {
		detached = make([]*CallbackPackage, 0, len(set))
		for pkg := range set {
			detached = append(detached, pkg)
		}
		delete(m.packages, obj)
	}
	m.mu.Unlock()

	for _, pkg := range detached {
		m.retirePackage(pkg, obj)
	}

	if len(detached) > 0 {
		m.logger.Debug("game object unregistered",
			slog.Uint64("game_object", uint64(obj)),
			slog.Int("packages_retired", len(detached)))
	}
}

// HasActiveEvents reports whether a game object still owns registrations.
// Collaborators use it to decide whether the object can be torn down yet.
func (m *Manager) HasActiveEvents(obj domain.GameObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.packages[obj]
	return ok && len(set) > 0
}

// DispatchCallback is the entry point the sound engine's internal thread
// calls for every notification. The manager hands this method, together with
// the package pointer as the cookie, to PostEvent; the engine round-trips
// the cookie back in info.Cookie.
//
// A nil or foreign cookie and a closed manager are benign shutdown races:
// the notification is dropped silently.
func (m *Manager) DispatchCallback(kind domain.CallbackType, info *domain.CallbackInfo) {
	if info == nil || info.Cookie == nil {
		return
	}
	pkg, ok := info.Cookie.(*CallbackPackage)
	if !ok {
		return
	}
	if pkg.Retired() {
		// A notification outliving its registration is a benign race with
		// explicit removal; the registration no longer exists to deliver to.
		return
	}

	// Two-phase retire: mark-and-detach under lock, deliver and retire
	// outside it. The terminal notification must still reach the very
	// package being removed.
	pendingRetire := false

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if set, found := m.packages[info.GameObject]; found && kind == domain.CallbackEndOfEvent {
		if _, in := set[pkg]; in {
			m.removeFromSet(set, pkg, info.GameObject)
			pendingRetire = true
		}
	}
	m.mu.Unlock()

	if pkg.flags&kind != 0 {
		pkg.handleAction(kind, info)
	}

	if pendingRetire {
		m.retirePackage(pkg, info.GameObject)
	}
}

// Close detaches and retires every registration and marks the manager
// closed. Notifications arriving afterwards are dropped; further
// registrations fail with ErrManagerClosed.
func (m *Manager) Close() {
	var detached []*CallbackPackage

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for obj, set := range m.packages {
		for pkg := range set {
			detached = append(detached, pkg)
		}
		delete(m.packages, obj)
	}
	m.mu.Unlock()

	for _, pkg := range detached {
		if !pkg.retire() {
			m.logger.Error("callback package retired twice during close")
		}
	}

	m.logger.Debug("callback manager closed", slog.Int("packages_retired", len(detached)))
}

// removeFromSet removes a package from a set and applies the pruning policy.
// Callers must hold mu.
func (m *Manager) removeFromSet(set packageSet, pkg *CallbackPackage, obj domain.GameObjectID) {
	delete(set, pkg)
	if m.policy == OptimizeMemory && len(set) == 0 {
		delete(m.packages, obj)
	}
}

// retirePackage retires a package outside the lock and reports bookkeeping
// violations. Retirement must happen exactly once per package.
func (m *Manager) retirePackage(pkg *CallbackPackage, obj domain.GameObjectID) {
	if !pkg.retire() {
		m.logger.Error("callback package retired twice",
			slog.Uint64("game_object", uint64(obj)),
			slog.String("variant", pkg.kind.String()))
	}
}
