// Package domain contains the core types of the soundlink integration layer
// with no external dependencies. It defines the identifiers, notification
// kinds, and payloads exchanged between the game runtime and the sound engine.
package domain

import (
	"strings"
	"time"
)

// GameObjectID identifies a game object (entity/actor) for the lifetime of
// its audio association. It is an opaque key with no ordering semantics.
type GameObjectID uint64

// InvalidGameObjectID represents an unset game object identifier.
const InvalidGameObjectID GameObjectID = 0

// PlayingID identifies a single posted event instance inside the sound
// engine. It is issued by the engine on PostEvent.
type PlayingID uint64

// InvalidPlayingID is returned when posting an event fails.
const InvalidPlayingID PlayingID = 0

// CallbackType is a bitmask of notification kinds a registration subscribes
// to. The sound engine raises one notification per set bit as the
// corresponding milestone is reached during playback.
type CallbackType uint32

const (
	// CallbackEndOfEvent is the terminal notification: the event finished
	// playing and no further notifications will follow for it. A package
	// subscribed to it is retired automatically after delivery.
	CallbackEndOfEvent CallbackType = 1 << iota

	// CallbackStarted signals that playback of the event began.
	CallbackStarted

	// CallbackMarker signals that playback crossed a named marker.
	CallbackMarker

	// CallbackDuration reports the estimated duration of the event,
	// raised once shortly after playback starts.
	CallbackDuration

	// CallbackStarvation signals that the engine's voice starved.
	CallbackStarvation

	// CallbackMusicBeat signals a music beat boundary.
	CallbackMusicBeat

	// CallbackMusicBar signals a music bar boundary.
	CallbackMusicBar
)

// callbackTypeNames maps single bits to their names for logging.
var callbackTypeNames = []struct {
	bit  CallbackType
	name string
}{
	{CallbackEndOfEvent, "end_of_event"},
	{CallbackStarted, "started"},
	{CallbackMarker, "marker"},
	{CallbackDuration, "duration"},
	{CallbackStarvation, "starvation"},
	{CallbackMusicBeat, "music_beat"},
	{CallbackMusicBar, "music_bar"},
}

// String returns a human-readable representation of the set bits.
func (t CallbackType) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	for _, entry := range callbackTypeNames {
		if t&entry.bit != 0 {
			parts = append(parts, entry.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Has reports whether all bits of kind are set in t.
func (t CallbackType) Has(kind CallbackType) bool {
	return t&kind == kind
}

// CallbackInfo is the notification payload delivered by the sound engine's
// internal thread. Cookie carries back, verbatim, the opaque value handed to
// PostEvent and is used to correlate the notification with its registration.
//
// The kind-specific fields are populated only for the matching notification
// kind; they are zero otherwise.
type CallbackInfo struct {
	// Cookie is the opaque correlation token from PostEvent.
	Cookie any

	// GameObject is the game object the event was posted against.
	GameObject GameObjectID

	// Playing is the engine-issued id of this event instance.
	Playing PlayingID

	// EventName is the name of the posted event.
	EventName string

	// MarkerLabel is the crossed marker's label (CallbackMarker only).
	MarkerLabel string

	// MarkerPosition is the crossed marker's offset from the start of the
	// event (CallbackMarker only).
	MarkerPosition time.Duration

	// EstimatedDuration is the engine's duration estimate for the event
	// (CallbackDuration only).
	EstimatedDuration time.Duration
}

// EventCallbackFunc is the signature of the function-pointer registration
// variant. It is invoked synchronously on the sound engine's internal thread,
// so implementations must return quickly and must not call back into the
// callback manager. The caller's cookie is passed explicitly alongside the
// payload; the payload's own Cookie field remains untouched.
type EventCallbackFunc func(kind CallbackType, info *CallbackInfo, cookie any)

// PostEventDelegate is the signature of the delegate registration variant.
// It is invoked asynchronously on the game thread with a by-value translation
// of the low-level payload.
type PostEventDelegate func(kind EventCallbackKind, info EventCallbackInfo)

// EventCallbackKind is the caller-facing notification kind delivered to
// delegates. Unlike CallbackType it is a plain enum, not a bitmask.
type EventCallbackKind int

const (
	// KindUnknown is returned for notification kinds with no delegate mapping.
	KindUnknown EventCallbackKind = iota
	KindEndOfEvent
	KindStarted
	KindMarker
	KindDuration
	KindStarvation
	KindMusicBeat
	KindMusicBar
)

// String returns a human-readable representation of the kind.
func (k EventCallbackKind) String() string {
	switch k {
	case KindEndOfEvent:
		return "end_of_event"
	case KindStarted:
		return "started"
	case KindMarker:
		return "marker"
	case KindDuration:
		return "duration"
	case KindStarvation:
		return "starvation"
	case KindMusicBeat:
		return "music_beat"
	case KindMusicBar:
		return "music_bar"
	default:
		return "unknown"
	}
}

// KindFromCallbackType maps a single-bit CallbackType onto the delegate enum.
func KindFromCallbackType(t CallbackType) EventCallbackKind {
	switch t {
	case CallbackEndOfEvent:
		return KindEndOfEvent
	case CallbackStarted:
		return KindStarted
	case CallbackMarker:
		return KindMarker
	case CallbackDuration:
		return KindDuration
	case CallbackStarvation:
		return KindStarvation
	case CallbackMusicBeat:
		return KindMusicBeat
	case CallbackMusicBar:
		return KindMusicBar
	default:
		return KindUnknown
	}
}

// EventCallbackInfo is the by-value payload handed to delegates on the game
// thread. It owns copies of everything it references so it safely outlives
// the audio-thread call stack it was translated on.
type EventCallbackInfo struct {
	GameObject        GameObjectID
	Playing           PlayingID
	EventName         string
	MarkerLabel       string
	MarkerPosition    time.Duration
	EstimatedDuration time.Duration
}

// TranslateCallbackInfo builds the caller-facing payload for a notification.
func TranslateCallbackInfo(info *CallbackInfo) EventCallbackInfo {
	return EventCallbackInfo{
		GameObject:        info.GameObject,
		Playing:           info.Playing,
		EventName:         info.EventName,
		MarkerLabel:       info.MarkerLabel,
		MarkerPosition:    info.MarkerPosition,
		EstimatedDuration: info.EstimatedDuration,
	}
}
