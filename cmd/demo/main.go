// Package main is a demonstration entry point for soundlink.
//
// It wires the full stack against the simulated sound engine, posts a few
// events with each callback variant, and prints the notifications as they
// arrive. Audio file paths given as arguments are loaded as event
// definitions through the sound bank; otherwise synthetic events are used.
//
// Build:
//
//	go build -o build/soundlink-demo ./cmd/demo
//
// Run:
//
//	./build/soundlink-demo [file.wav ...]
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tidemark/soundlink/internal/app"
	"github.com/tidemark/soundlink/internal/bank"
	"github.com/tidemark/soundlink/internal/domain"
)

func main() {
	config, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	events := demoEvents(os.Args[1:])
	audio := application.AudioService()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	for i, event := range events {
		obj := domain.GameObjectID(i + 1)
		audio.OnGameObjectSpawned(obj)

		group.Go(func() error {
			defer audio.OnGameObjectDestroyed(obj)

			// Function variant: invoked inline on the engine thread.
			flags := domain.CallbackStarted | domain.CallbackMarker | domain.CallbackDuration
			_, err := audio.PostEventWithCallback(event, obj, flags,
				func(kind domain.CallbackType, info *domain.CallbackInfo, cookie any) {
					fmt.Printf("[callback] obj=%d event=%q kind=%s\n", info.GameObject, info.EventName, kind)
				}, nil)
			if err != nil {
				return err
			}

			// Delegate variant: marshalled onto the game thread.
			_, err = audio.PostEventWithDelegate(event, obj, domain.CallbackEndOfEvent,
				func(kind domain.EventCallbackKind, info domain.EventCallbackInfo) {
					fmt.Printf("[delegate] obj=%d event=%q kind=%s\n", info.GameObject, info.EventName, kind)
				})
			if err != nil {
				return err
			}

			// Latent variant: suspend this caller until the event finishes.
			if err := audio.PostEventAndWait(ctx, event, obj); err != nil {
				return err
			}
			fmt.Printf("[latent]   obj=%d event=%q finished\n", obj, event.Name)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Printf("Demo error: %v", err)
	}
}

// demoEvents loads event definitions from the given audio files, falling
// back to synthetic events when none are given.
func demoEvents(paths []string) []domain.SoundEvent {
	if len(paths) == 0 {
		return []domain.SoundEvent{
			{
				Name:     "explosion_large",
				Duration: 2 * time.Second,
				Markers: []domain.Marker{
					{Label: "impact", Offset: 200 * time.Millisecond},
					{Label: "debris", Offset: 900 * time.Millisecond},
				},
			},
			{
				Name:     "footsteps_gravel",
				Duration: 1500 * time.Millisecond,
			},
		}
	}

	events := make([]domain.SoundEvent, 0, len(paths))
	for _, path := range paths {
		event, err := bank.LoadEvent(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		events = append(events, event)
	}
	return events
}
