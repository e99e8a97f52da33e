// Package domain contains the core types of the soundlink integration layer.
package domain

import "time"

// SoundEvent is the definition of a postable audio event: what the game
// asks the sound engine to play. Definitions usually come from a sound bank
// (see internal/bank) but can be constructed directly.
type SoundEvent struct {
	// Name identifies the event inside the sound engine.
	Name string

	// Duration is the expected playback length. The engine reports it back
	// through CallbackDuration and uses it to schedule the terminal
	// notification.
	Duration time.Duration

	// Markers are named positions inside the event. Each one raises a
	// CallbackMarker notification when playback crosses it.
	Markers []Marker
}

// Marker is a named position inside a sound event.
type Marker struct {
	// Label is the marker name delivered in CallbackInfo.MarkerLabel.
	Label string

	// Offset is the marker position from the start of the event.
	Offset time.Duration
}
