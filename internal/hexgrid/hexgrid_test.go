package hexgrid

import (
	"errors"
	"math"
	"testing"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/pkg/core"
)

func TestCellFor_Idempotent(t *testing.T) {
	c := core.Coordinate{Latitude: 52.5200, Longitude: 13.4050}
	a, err := CellFor(c, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CellFor(c, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("same coordinate produced different cells: %s vs %s", a, b)
	}
}

func TestCellFor_CenterRoundTrip(t *testing.T) {
	// The centroid of any cell must map back to that cell.
	seeds := []core.Coordinate{
		{Latitude: 52.52, Longitude: 13.405},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 40.7128, Longitude: -74.0060},
		{Latitude: 0.01, Longitude: 0.01},
	}
	for _, seed := range seeds {
		cell, err := CellFor(seed, DefaultResolution)
		if err != nil {
			t.Fatalf("CellFor(%+v): %v", seed, err)
		}
		center, err := Center(cell)
		if err != nil {
			t.Fatalf("Center(%s): %v", cell, err)
		}
		back, err := CellFor(center, DefaultResolution)
		if err != nil {
			t.Fatalf("CellFor(center of %s): %v", cell, err)
		}
		if back != cell {
			t.Errorf("centroid of %s resolved to %s", cell, back)
		}
	}
}

func TestCellFor_NearbyPointsSameCell(t *testing.T) {
	// Points a few meters from a cell centroid stay inside the cell
	// (cell edge at the default resolution is 32 m).
	cell, err := CellFor(core.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	center, err := Center(cell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// ~5 m in latitude.
	nudged := core.Coordinate{Latitude: center.Latitude + 5.0/111320.0, Longitude: center.Longitude}
	got, err := CellFor(nudged, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cell {
		t.Errorf("point 5 m from centroid resolved to %s, want %s", got, cell)
	}
}

func TestCellFor_InvalidCoordinate(t *testing.T) {
	_, err := CellFor(core.Coordinate{Latitude: math.NaN(), Longitude: 0}, DefaultResolution)
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestCellFor_InvalidResolution(t *testing.T) {
	c := core.Coordinate{Latitude: 1, Longitude: 1}
	for _, res := range []int{-1, MaxResolution + 1, 99} {
		if _, err := CellFor(c, res); !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("resolution %d: expected ErrInvalidResolution, got %v", res, err)
		}
	}
}

func TestBoundary_ClosedRing(t *testing.T) {
	cell, err := CellFor(core.Coordinate{Latitude: 52.52, Longitude: 13.405}, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ring, err := Boundary(cell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ring) != 7 {
		t.Fatalf("boundary has %d points, want 7 (6 corners + closing vertex)", len(ring))
	}
	if ring[0] != ring[6] {
		t.Error("first boundary vertex is not repeated as last")
	}
}

func TestBoundary_MalformedCell(t *testing.T) {
	for _, bad := range []core.Cell{"", "12", "a:b:c", "12:3", "99:0:0", "12:x:0"} {
		if _, err := Boundary(bad); !errors.Is(err, ErrInvalidCell) {
			t.Errorf("Boundary(%q): expected ErrInvalidCell, got %v", bad, err)
		}
	}
}

func TestRing_Counts(t *testing.T) {
	cell, err := CellFor(core.Coordinate{Latitude: 10, Longitude: 10}, DefaultResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A k-ring holds 3k(k+1)+1 cells.
	for k, want := range map[int]int{0: 1, 1: 7, 2: 19, 3: 37} {
		cells, err := Ring(cell, k)
		if err != nil {
			t.Fatalf("Ring(k=%d): %v", k, err)
		}
		if len(cells) != want {
			t.Errorf("Ring(k=%d) returned %d cells, want %d", k, len(cells), want)
		}
	}
}

func TestRing_NegativeRadius(t *testing.T) {
	cell, _ := CellFor(core.Coordinate{Latitude: 10, Longitude: 10}, DefaultResolution)
	if _, err := Ring(cell, -1); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestStepDistance(t *testing.T) {
	a := core.Cell("14:0:0")
	for cell, want := range map[core.Cell]int{
		"14:0:0":  0,
		"14:1:0":  1,
		"14:0:1":  1,
		"14:1:-1": 1,
		"14:2:0":  2,
		"14:2:-1": 2,
		"14:3:2":  5,
	} {
		got, err := StepDistance(a, cell)
		if err != nil {
			t.Fatalf("StepDistance(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("StepDistance(%s, %s) = %d, want %d", a, cell, got, want)
		}
	}
}

func TestStepDistance_ResolutionMismatch(t *testing.T) {
	if _, err := StepDistance("14:0:0", "13:0:0"); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell, got %v", err)
	}
}

func TestGrid_NeighborhoodCapClosestFirst(t *testing.T) {
	grid, err := NewGrid(DefaultResolution, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	center, err := grid.CellFor(core.Coordinate{Latitude: 45, Longitude: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Radius 3 would yield 37 cells; the cap keeps the nearest 10.
	cells, err := grid.Neighborhood(center, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 10 {
		t.Fatalf("expected cap of 10 cells, got %d", len(cells))
	}
	if cells[0] != center {
		t.Errorf("expected center cell first, got %s", cells[0])
	}

	// All kept cells must be direct neighbors or the center: the nearest
	// 10 of a radius-3 disk always sit within step distance 2.
	for _, cell := range cells[1:] {
		d, err := StepDistance(center, cell)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d > 2 {
			t.Errorf("truncation kept far cell %s (step distance %d)", cell, d)
		}
	}
}

func TestGrid_NeighborhoodIncludesCenterUncapped(t *testing.T) {
	grid, err := NewGrid(DefaultResolution, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	center, _ := grid.CellFor(core.Coordinate{Latitude: 45, Longitude: 7})
	cells, err := grid.Neighborhood(center, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 19 {
		t.Errorf("expected 19 cells for radius 2, got %d", len(cells))
	}
}

func TestNewGrid_InvalidResolution(t *testing.T) {
	if _, err := NewGrid(-2, 0); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
}

func TestEdgeM_HalvesPerResolution(t *testing.T) {
	if EdgeM(DefaultResolution) != 32 {
		t.Errorf("default resolution edge = %f, want 32", EdgeM(DefaultResolution))
	}
	for res := MinResolution; res < MaxResolution; res++ {
		if EdgeM(res) != 2*EdgeM(res+1) {
			t.Errorf("edge at res %d is not double res %d", res, res+1)
		}
	}
}
