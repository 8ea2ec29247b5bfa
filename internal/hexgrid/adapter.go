// internal/hexgrid/adapter.go
package hexgrid

import (
	"fmt"
	"sort"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/pkg/core"
)

// Grid is the engine-facing seam over the tessellation: a fixed
// resolution plus a hard cap on neighborhood sizes.
type Grid struct {
	resolution int
	maxCells   int
}

// DefaultMaxCells bounds the visible cell set returned by Neighborhood.
const DefaultMaxCells = 200

// NewGrid creates a grid at the given resolution. maxCells <= 0 selects
// DefaultMaxCells.
func NewGrid(resolution, maxCells int) (*Grid, error) {
	if resolution < MinResolution || resolution > MaxResolution {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Grid{resolution: resolution, maxCells: maxCells}, nil
}

// Resolution returns the grid's tessellation resolution.
func (g *Grid) Resolution() int {
	return g.resolution
}

// CellFor returns the cell containing the coordinate at the grid's
// resolution.
func (g *Grid) CellFor(c core.Coordinate) (core.Cell, error) {
	return CellFor(c, g.resolution)
}

// Neighborhood returns all cells within radius steps of the center cell,
// center first, ordered closest-first by great-circle distance between
// cell centroids, truncated to the grid's cap. Sorting before truncating
// keeps the dropped cells deterministic: always the farthest ones.
func (g *Grid) Neighborhood(center core.Cell, radius int) ([]core.Cell, error) {
	cells, err := Ring(center, radius)
	if err != nil {
		return nil, err
	}

	centerCoord, err := Center(center)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		cell core.Cell
		dist float64
	}
	byDist := make([]ranked, 0, len(cells))
	for _, cell := range cells {
		coord, err := Center(cell)
		if err != nil {
			return nil, err
		}
		byDist = append(byDist, ranked{cell: cell, dist: geo.DistanceM(centerCoord, coord)})
	}
	sort.Slice(byDist, func(i, j int) bool {
		if byDist[i].dist != byDist[j].dist {
			return byDist[i].dist < byDist[j].dist
		}
		return byDist[i].cell < byDist[j].cell
	})

	if len(byDist) > g.maxCells {
		byDist = byDist[:g.maxCells]
	}
	out := make([]core.Cell, len(byDist))
	for i, rc := range byDist {
		out[i] = rc.cell
	}
	return out, nil
}

// Boundary returns the closed boundary ring of a cell.
func (g *Grid) Boundary(cell core.Cell) ([]core.Coordinate, error) {
	return Boundary(cell)
}

// Center returns the centroid coordinate of a cell.
func (g *Grid) Center(cell core.Cell) (core.Coordinate, error) {
	return Center(cell)
}
