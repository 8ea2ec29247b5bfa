// Package monitor periodically reports engine status: a status file on
// disk for quick inspection and an economy point to InfluxDB when
// metrics are enabled.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/internal/influx"
)

// DefaultInterval is the reporting cadence.
const DefaultInterval = 10 * time.Second

// Dependencies holds the monitor's collaborators. Influx may be nil when
// metrics are disabled.
type Dependencies struct {
	Engine    *engine.Service
	Influx    *influx.Manager
	Logger    *slog.Logger
	StatusDir string
	Interval  time.Duration
}

// Service writes periodic status reports.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// report captures one status snapshot, writes it to the status file and
// ships the economy point.
func (s *Service) report(ctx context.Context, statusFile *os.File) {
	snap, err := s.deps.Engine.Snapshot(ctx)
	if err != nil {
		s.deps.Logger.Error("Failed to capture status snapshot", "error", err)
		return
	}

	if statusFile != nil {
		raw, err := json.MarshalIndent(snap, "", "  ")
		if err == nil {
			statusFile.Truncate(0)
			statusFile.Seek(0, 0)
			statusFile.Write(raw)
			statusFile.WriteString("\n")
		}
	}

	if s.deps.Influx != nil {
		point := influx.EconomyPoint(snap.Player.ID, snap.Player.Resources, snap.Conquered, snap.Visited)
		if err := s.deps.Influx.WritePoint(ctx, influx.BucketSimulation, point); err != nil {
			s.deps.Logger.Error("Failed to write economy point", "error", err)
		}
	}
}

// Start starts the monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.json"))
		if err != nil {
			s.deps.Logger.Error("Error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.report(context.Background(), statusFile)
			}
		}
	}()

	return nil
}

// Stop stops the monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
