// internal/position/position.go

// Package position abstracts where the player currently is. The engine
// only ever sees PositionFix values; whether they come from a real GPS
// bridge or the simulated walker is a wiring decision.
package position

import (
	"context"
	"errors"

	"github.com/terrahex/engine/pkg/core"
)

var (
	// ErrUnavailable is returned when no position can be produced.
	ErrUnavailable = errors.New("position source unavailable")

	// ErrPermissionDenied is returned when the platform refuses access
	// to location data.
	ErrPermissionDenied = errors.New("position permission denied")

	// ErrTimeout is returned when the source does not answer in time.
	ErrTimeout = errors.New("position request timed out")
)

// Source supplies the player's geographic position.
type Source interface {
	// Current returns one fix, respecting ctx for cancellation.
	Current(ctx context.Context) (core.PositionFix, error)

	// Watch starts streaming fixes. onUpdate and onError are invoked
	// from the source's own goroutine. The returned subscription must
	// be cancelled to stop the stream.
	Watch(onUpdate func(core.PositionFix), onError func(error)) (Subscription, error)
}

// Subscription is a handle on an active watch. Cancel is idempotent and
// safe to call after the source has already stopped.
type Subscription interface {
	Cancel()
}
