// Package sim provides a simulated implementation of the SoundEngine
// interface. It stands in for the real engine in tests and demos: posted
// events play out on their own goroutines (the engine's "internal thread"),
// raising the requested notifications on schedule.
//
// Thread-safety: This implementation is thread-safe.
package sim

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tidemark/soundlink/internal/domain"
	"github.com/tidemark/soundlink/internal/ports"
)

// Engine is a simulated sound engine.
//
// CancelEventCallbacks honors the blocking contract the callback manager
// relies on: it returns only after every in-flight playback goroutine for
// the game object has exited, so no further notifications can arrive.
type Engine struct {
	logger *slog.Logger

	// timeScale stretches or compresses the notification schedule.
	// Tests use small values to play events out quickly.
	timeScale float64

	mu          sync.Mutex
	objects     map[domain.GameObjectID]*objectState
	nextPlaying domain.PlayingID
	closed      bool

	// Behavior configuration (for testing error scenarios)
	failPost bool
}

// objectState tracks the in-flight playback goroutines of one game object.
type objectState struct {
	cancel chan struct{}
	wg     sync.WaitGroup
}

// NewEngine creates a simulated sound engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:      logger,
		timeScale:   1.0,
		objects:     make(map[domain.GameObjectID]*objectState),
		nextPlaying: 1,
	}
}

// SetTimeScale scales all notification schedules. A value below 1.0 plays
// events out faster than real time.
func (e *Engine) SetTimeScale(scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if scale > 0 {
		e.timeScale = scale
	}
}

// SetFailPost configures the engine to fail PostEvent (for testing).
func (e *Engine) SetFailPost(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failPost = fail
}

// PostEvent schedules a simulated playback of the event on obj. Requested
// notifications are raised on a dedicated goroutine in timeline order:
// Started and Duration immediately, markers at their offsets, EndOfEvent at
// the event's duration.
func (e *Engine) PostEvent(event domain.SoundEvent, obj domain.GameObjectID, flags domain.CallbackType, notify ports.EngineNotifyFunc, cookie any) (domain.PlayingID, error) {
	if obj == domain.InvalidGameObjectID {
		return domain.InvalidPlayingID, domain.ErrInvalidGameObject
	}

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return domain.InvalidPlayingID, domain.ErrEngineClosed
	}
	if e.failPost {
		e.mu.Unlock()
		return domain.InvalidPlayingID, domain.NewEngineError("post", event.Name, -1, "simulated post failure", nil)
	}

	st := e.objects[obj]
	if st == nil {
		st = &objectState{cancel: make(chan struct{})}
		e.objects[obj] = st
	}

	playing := e.nextPlaying
	e.nextPlaying++
	scale := e.timeScale

	// Count the goroutine before releasing the lock so a concurrent cancel
	// is guaranteed to wait for it.
	st.wg.Add(1)

	e.mu.Unlock()

	e.logger.Debug("event posted",
		slog.String("event", event.Name),
		slog.Uint64("game_object", uint64(obj)),
		slog.Uint64("playing_id", uint64(playing)))

	go e.playback(st, event, obj, playing, flags, notify, cookie, scale)

	return playing, nil
}

// notification is one step of a simulated playback timeline.
type notification struct {
	at   time.Duration
	kind domain.CallbackType
	info domain.CallbackInfo
}

// playback raises the requested notifications for one posted event.
// It runs on its own goroutine and exits early when the game object's
// callbacks are cancelled.
func (e *Engine) playback(st *objectState, event domain.SoundEvent, obj domain.GameObjectID, playing domain.PlayingID, flags domain.CallbackType, notify ports.EngineNotifyFunc, cookie any, scale float64) {
	defer st.wg.Done()

	base := domain.CallbackInfo{
		Cookie:     cookie,
		GameObject: obj,
		Playing:    playing,
		EventName:  event.Name,
	}

	timeline := make([]notification, 0, 3+len(event.Markers))

	started := base
	timeline = append(timeline, notification{at: 0, kind: domain.CallbackStarted, info: started})

	duration := base
	duration.EstimatedDuration = event.Duration
	timeline = append(timeline, notification{at: 0, kind: domain.CallbackDuration, info: duration})

	for _, marker := range event.Markers {
		info := base
		info.MarkerLabel = marker.Label
		info.MarkerPosition = marker.Offset
		timeline = append(timeline, notification{at: marker.Offset, kind: domain.CallbackMarker, info: info})
	}

	end := base
	timeline = append(timeline, notification{at: event.Duration, kind: domain.CallbackEndOfEvent, info: end})

	elapsed := time.Duration(0)
	for i := range timeline {
		step := &timeline[i]

		if wait := scaled(step.at, scale) - elapsed; wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				elapsed += wait
			case <-st.cancel:
				timer.Stop()
				return
			}
		} else {
			// Zero-delay steps still observe cancellation.
			select {
			case <-st.cancel:
				return
			default:
			}
		}

		if flags&step.kind != 0 && notify != nil {
			info := step.info
			notify(step.kind, &info)
		}
	}
}

// scaled applies the engine time scale to a timeline offset.
func scaled(d time.Duration, scale float64) time.Duration {
	return time.Duration(float64(d) * scale)
}

// CancelEventCallbacks cancels every pending callback for obj. It blocks
// until all in-flight playback goroutines for the object have exited, after
// which no further notifications can be raised for it.
func (e *Engine) CancelEventCallbacks(obj domain.GameObjectID) {
	e.mu.Lock()
	st := e.objects[obj]
	if st != nil {
		delete(e.objects, obj)
	}
	e.mu.Unlock()

	if st == nil {
		return
	}

	close(st.cancel)
	st.wg.Wait()

	e.logger.Debug("event callbacks cancelled", slog.Uint64("game_object", uint64(obj)))
}

// Close shuts the engine down, cancelling all pending callbacks.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	states := make([]*objectState, 0, len(e.objects))
	for obj, st := range e.objects {
		states = append(states, st)
		delete(e.objects, obj)
	}
	e.mu.Unlock()

	for _, st := range states {
		close(st.cancel)
		st.wg.Wait()
	}

	e.logger.Debug("simulated engine closed")

	return nil
}

// Verify that Engine implements the SoundEngine interface
var _ ports.SoundEngine = (*Engine)(nil)
