// Package credstore provides the persistence slot for the access token.
//
// The slot holds exactly one value: the raw token string. Absence means
// "anonymous". The layout is shared with the other clients of the
// product, so backends must not add structure around the value.
package credstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no token is persisted.
var ErrNotFound = errors.New("no persisted token")

// Store is the durable slot for the access token.
type Store interface {
	// Load returns the persisted token, or ErrNotFound when absent.
	Load(ctx context.Context) (string, error)
	// Save replaces the persisted token.
	Save(ctx context.Context, token string) error
	// Clear removes the persisted token. Clearing an empty slot is not
	// an error.
	Clear(ctx context.Context) error
}

// Event describes an observed change of the persisted slot.
type Event struct {
	// Token is the new value; empty when Present is false.
	Token string
	// Present is false when the slot was cleared.
	Present bool
}

// Watch polls the store and emits an Event whenever the persisted value
// changes from what was last observed. The baseline is read before
// Watch returns, so any change made afterwards produces an event. The
// channel closes when ctx is cancelled.
//
// Polling is the portable stand-in for a storage-change notification:
// another process sharing the slot has no way to push to us. A stale
// read between polls is fine; the session reconciles on the next 401.
func Watch(ctx context.Context, s Store, interval time.Duration) <-chan Event {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	events := make(chan Event, 1)
	last, lastPresent, _ := snapshot(ctx, s)

	go func() {
		defer close(events)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cur, present, err := snapshot(ctx, s)
			if err != nil {
				// A failed read says nothing about the slot; a
				// spurious "cleared" event here would log the user
				// out over a hiccup.
				continue
			}
			if cur == last && present == lastPresent {
				continue
			}
			last, lastPresent = cur, present

			select {
			case events <- Event{Token: cur, Present: present}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}

// snapshot reads the slot. A nil error with present false means the
// slot is genuinely empty; a non-nil error means the read itself
// failed and the slot state is unknown.
func snapshot(ctx context.Context, s Store) (string, bool, error) {
	tok, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if tok == "" {
		return "", false, nil
	}
	return tok, true, nil
}
