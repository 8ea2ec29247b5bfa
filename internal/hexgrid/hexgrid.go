// internal/hexgrid/hexgrid.go

// Package hexgrid tiles the world with a discrete hexagonal tessellation.
// Coordinates are projected onto the EPSG:3857 plane and bucketed into
// pointy-top hexagons addressed by axial coordinates (q, r). Cell IDs are
// resolution-scoped strings of the form "res:q:r", so the same location at
// two resolutions yields two distinct cells.
package hexgrid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/pkg/core"
)

var (
	// ErrInvalidResolution is returned when the resolution is outside the
	// supported range.
	ErrInvalidResolution = errors.New("resolution outside supported range")

	// ErrInvalidCell is returned when a cell identifier is malformed.
	ErrInvalidCell = errors.New("malformed cell identifier")

	// ErrInvalidRadius is returned for negative neighborhood radii.
	ErrInvalidRadius = errors.New("neighborhood radius must be non-negative")
)

const (
	// MinResolution and MaxResolution bound the supported tessellation
	// granularity.
	MinResolution = 0
	MaxResolution = 15

	// DefaultResolution yields cells with a 32 m edge, i.e. roughly
	// 55 m across flats and 64 m corner to corner.
	DefaultResolution = 14

	// baseEdgeExp: edge length at resolution r is 2^(baseEdgeExp-r) meters.
	baseEdgeExp = 19
)

// EdgeM returns the hexagon edge length in meters at the given resolution.
func EdgeM(resolution int) float64 {
	return float64(int64(1) << (baseEdgeExp - resolution))
}

// axial is a hex address in axial coordinates. The third cube coordinate
// is implicit: s = -q - r.
type axial struct {
	q, r int
}

// CellFor returns the cell containing the coordinate at the given
// resolution.
func CellFor(c core.Coordinate, resolution int) (core.Cell, error) {
	if err := geo.Validate(c); err != nil {
		return "", err
	}
	if resolution < MinResolution || resolution > MaxResolution {
		return "", fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}

	x, y := geo.To3857(c)
	ax := axialForPlane(x, y, EdgeM(resolution))
	return formatCell(resolution, ax), nil
}

// Center returns the geographic coordinate of the cell's centroid.
func Center(cell core.Cell) (core.Coordinate, error) {
	resolution, ax, err := ParseCell(cell)
	if err != nil {
		return core.Coordinate{}, err
	}
	x, y := planeForAxial(ax, EdgeM(resolution))
	return geo.From3857(x, y), nil
}

// Boundary returns the ordered ring of coordinates outlining the cell.
// The ring is closed: the first vertex is repeated as the last, giving
// seven points for the six corners.
func Boundary(cell core.Cell) ([]core.Coordinate, error) {
	resolution, ax, err := ParseCell(cell)
	if err != nil {
		return nil, err
	}
	edge := EdgeM(resolution)
	cx, cy := planeForAxial(ax, edge)

	ring := make([]core.Coordinate, 0, 7)
	for k := 0; k < 6; k++ {
		// Pointy-top corners sit at 30° + 60°·k.
		angle := math.Pi / 180 * (60*float64(k) + 30)
		ring = append(ring, geo.From3857(cx+edge*math.Cos(angle), cy+edge*math.Sin(angle)))
	}
	ring = append(ring, ring[0])
	return ring, nil
}

// Ring returns all cells exactly at, or within, radius steps of the center
// cell, center included. Order is unspecified; callers wanting stable
// order sort the result themselves.
func Ring(center core.Cell, radius int) ([]core.Cell, error) {
	resolution, ax, err := ParseCell(center)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, ErrInvalidRadius
	}

	cells := make([]core.Cell, 0, 3*radius*(radius+1)+1)
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			cells = append(cells, formatCell(resolution, axial{q: ax.q + dq, r: ax.r + dr}))
		}
	}
	return cells, nil
}

// StepDistance returns the number of edge steps between two cells at the
// same resolution.
func StepDistance(a, b core.Cell) (int, error) {
	resA, axA, err := ParseCell(a)
	if err != nil {
		return 0, err
	}
	resB, axB, err := ParseCell(b)
	if err != nil {
		return 0, err
	}
	if resA != resB {
		return 0, fmt.Errorf("%w: resolutions differ (%d vs %d)", ErrInvalidCell, resA, resB)
	}
	dq := axA.q - axB.q
	dr := axA.r - axB.r
	ds := -dq - dr
	return max(abs(dq), abs(dr), abs(ds)), nil
}

// ParseCell splits a cell identifier into its resolution and axial
// address. Fails with ErrInvalidCell on any malformed input.
func ParseCell(cell core.Cell) (resolution int, ax axial, err error) {
	parts := strings.Split(string(cell), ":")
	if len(parts) != 3 {
		return 0, axial{}, fmt.Errorf("%w: %q", ErrInvalidCell, cell)
	}
	resolution, err = strconv.Atoi(parts[0])
	if err != nil || resolution < MinResolution || resolution > MaxResolution {
		return 0, axial{}, fmt.Errorf("%w: %q", ErrInvalidCell, cell)
	}
	ax.q, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, axial{}, fmt.Errorf("%w: %q", ErrInvalidCell, cell)
	}
	ax.r, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, axial{}, fmt.Errorf("%w: %q", ErrInvalidCell, cell)
	}
	return resolution, ax, nil
}

func formatCell(resolution int, ax axial) core.Cell {
	return core.Cell(fmt.Sprintf("%d:%d:%d", resolution, ax.q, ax.r))
}

// axialForPlane buckets a plane point into the hexagon containing it,
// using cube-coordinate rounding.
func axialForPlane(x, y, edge float64) axial {
	qf := (math.Sqrt(3)/3*x - y/3) / edge
	rf := (2.0 / 3 * y) / edge
	return cubeRound(qf, rf)
}

// planeForAxial returns the plane coordinates of a hexagon's center.
func planeForAxial(ax axial, edge float64) (x, y float64) {
	x = edge * math.Sqrt(3) * (float64(ax.q) + float64(ax.r)/2)
	y = edge * 1.5 * float64(ax.r)
	return x, y
}

// cubeRound snaps fractional axial coordinates to the nearest hex,
// re-deriving the coordinate with the largest rounding error from the
// cube constraint q + r + s = 0.
func cubeRound(qf, rf float64) axial {
	sf := -qf - rf

	q := math.Round(qf)
	r := math.Round(rf)
	s := math.Round(sf)

	dq := math.Abs(q - qf)
	dr := math.Abs(r - rf)
	ds := math.Abs(s - sf)

	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	}
	return axial{q: int(q), r: int(r)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
