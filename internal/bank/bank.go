// Package bank builds sound event definitions from audio files on disk.
// A real sound engine ships compiled banks; soundlink's simulated engine
// plays definitions derived from plain audio files instead, with the event
// duration probed from the file itself.
package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/tidemark/soundlink/internal/domain"
)

// LoadEvent builds a sound event definition from an audio file.
// The event name comes from the file's title tag when present, otherwise
// from the file name; the duration is probed from the audio data.
//
// Supported formats: .wav, .mp3, .ogg.
func LoadEvent(path string) (domain.SoundEvent, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return domain.SoundEvent{}, domain.ErrFileNotFound
	}

	duration, err := probeDuration(path)
	if err != nil {
		return domain.SoundEvent{}, err
	}

	return domain.SoundEvent{
		Name:     eventName(path),
		Duration: duration,
	}, nil
}

// eventName extracts a display name from the file's metadata tags, falling
// back to the file stem.
func eventName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return name
	}
	defer func() { _ = f.Close() }()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged files are common; the file stem is good enough.
		return name
	}
	if title := strings.TrimSpace(meta.Title()); title != "" {
		return title
	}
	return name
}

// probeDuration decodes just enough of the file to determine its length.
func probeDuration(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".wav":
		return wavDuration(path)
	case ".mp3":
		return mp3Duration(path)
	case ".ogg":
		return oggDuration(path)
	default:
		return 0, domain.ErrUnsupportedFormat
	}
}

// wavDuration reads the WAV headers and derives the playback length.
func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NewBankError("open", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	duration, err := dec.Duration()
	if err != nil {
		return 0, domain.NewBankError("decode", path, err)
	}
	return duration, nil
}

// mp3Duration decodes the MP3 stream headers and derives the playback
// length from the decoded PCM size. go-mp3 outputs 16-bit stereo, so each
// sample frame is 4 bytes.
func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NewBankError("open", path, err)
	}
	defer func() { _ = f.Close() }()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return 0, domain.NewBankError("decode", path, err)
	}
	if dec.SampleRate() <= 0 {
		return 0, domain.NewBankError("decode", path, fmt.Errorf("invalid sample rate %d", dec.SampleRate()))
	}

	frames := dec.Length() / 4
	return time.Duration(frames) * time.Second / time.Duration(dec.SampleRate()), nil
}

// oggDuration reads the Vorbis stream and derives the playback length from
// the total sample count.
func oggDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NewBankError("open", path, err)
	}
	defer func() { _ = f.Close() }()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return 0, domain.NewBankError("decode", path, err)
	}
	if r.SampleRate() <= 0 {
		return 0, domain.NewBankError("decode", path, fmt.Errorf("invalid sample rate %d", r.SampleRate()))
	}

	return time.Duration(r.Length()) * time.Second / time.Duration(r.SampleRate()), nil
}
