// internal/position/simulated.go
package position

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/terrahex/engine/pkg/core"
)

// SimulatedSource produces fixes along a random walk from an origin
// coordinate. It stands in for a device GPS during development and in
// tests.
type SimulatedSource struct {
	mu       sync.Mutex
	current  core.Coordinate
	stepM    float64
	interval time.Duration
	rng      *rand.Rand
}

// SimulatedConfig configures the random walk.
type SimulatedConfig struct {
	Origin   core.Coordinate
	StepM    float64       // distance covered per interval, meters
	Interval time.Duration // time between fixes for Watch
	Seed     int64         // 0 seeds from wall clock
}

// NewSimulated creates a simulated position source.
func NewSimulated(cfg SimulatedConfig) *SimulatedSource {
	if cfg.StepM <= 0 {
		cfg.StepM = 25
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		current:  cfg.Origin,
		stepM:    cfg.StepM,
		interval: cfg.Interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Current returns the walker's position after one random step.
func (s *SimulatedSource) Current(ctx context.Context) (core.PositionFix, error) {
	select {
	case <-ctx.Done():
		return core.PositionFix{}, ErrTimeout
	default:
	}
	return s.step(), nil
}

// Watch streams one fix per interval until cancelled.
func (s *SimulatedSource) Watch(onUpdate func(core.PositionFix), onError func(error)) (Subscription, error) {
	sub := &simSubscription{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sub.stop:
				return
			case <-ticker.C:
				onUpdate(s.step())
			}
		}
	}()
	return sub, nil
}

// step advances the walk by stepM meters in a random direction.
func (s *SimulatedSource) step() core.PositionFix {
	s.mu.Lock()
	defer s.mu.Unlock()

	heading := s.rng.Float64() * 2 * math.Pi
	// Meters-to-degrees conversion, good enough away from the poles.
	dLat := s.stepM * math.Cos(heading) / 111320.0
	dLng := s.stepM * math.Sin(heading) / (111320.0 * math.Cos(s.current.Latitude*math.Pi/180))

	s.current.Latitude += dLat
	s.current.Longitude += dLng

	accuracy := 5 + s.rng.Float64()*10
	return core.PositionFix{
		Coordinate: s.current,
		Time:       time.Now(),
		AccuracyM:  &accuracy,
	}
}

type simSubscription struct {
	once sync.Once
	stop chan struct{}
}

// Cancel stops the watch goroutine. Safe to call repeatedly.
func (s *simSubscription) Cancel() {
	s.once.Do(func() { close(s.stop) })
}
