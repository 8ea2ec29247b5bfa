package position

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/pkg/core"
)

var berlin = core.Coordinate{Latitude: 52.52, Longitude: 13.405}

func TestCurrent_StepsNearOrigin(t *testing.T) {
	src := NewSimulated(SimulatedConfig{Origin: berlin, StepM: 25, Seed: 42})

	fix, err := src.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := geo.DistanceM(berlin, fix.Coordinate)
	if d < 1 || d > 50 {
		t.Errorf("first step moved %f m, want ~25 m", d)
	}
	if fix.AccuracyM == nil {
		t.Error("expected accuracy to be reported")
	}
	if fix.Time.IsZero() {
		t.Error("expected capture time to be set")
	}
}

func TestCurrent_Deterministic(t *testing.T) {
	a := NewSimulated(SimulatedConfig{Origin: berlin, StepM: 25, Seed: 7})
	b := NewSimulated(SimulatedConfig{Origin: berlin, StepM: 25, Seed: 7})

	fixA, _ := a.Current(context.Background())
	fixB, _ := b.Current(context.Background())
	if fixA.Coordinate != fixB.Coordinate {
		t.Errorf("same seed produced different walks: %+v vs %+v", fixA.Coordinate, fixB.Coordinate)
	}
}

func TestCurrent_CancelledContext(t *testing.T) {
	src := NewSimulated(SimulatedConfig{Origin: berlin})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Current(ctx); err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestWatch_DeliversAndCancels(t *testing.T) {
	src := NewSimulated(SimulatedConfig{Origin: berlin, Interval: 5 * time.Millisecond, Seed: 1})

	var updates atomic.Int32
	sub, err := src.Watch(func(core.PositionFix) { updates.Add(1) }, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(time.Second)
	for updates.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for watch updates")
		case <-time.After(time.Millisecond):
		}
	}

	sub.Cancel()
	n := updates.Load()
	time.Sleep(25 * time.Millisecond)
	// Allow one in-flight update around cancellation.
	if updates.Load() > n+1 {
		t.Errorf("watch kept delivering after cancel: %d -> %d", n, updates.Load())
	}
}

func TestWatch_CancelIdempotent(t *testing.T) {
	src := NewSimulated(SimulatedConfig{Origin: berlin, Interval: time.Hour})
	sub, err := src.Watch(func(core.PositionFix) {}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub.Cancel()
	sub.Cancel() // must not panic
}
