// internal/engine/errors.go
package engine

import "errors"

// Command-level failures. The gateway maps each to a specific
// user-facing message, so these stay distinct rather than collapsing
// into one precondition error.
var (
	// ErrAlreadyConquered is returned when conquering a cell that has
	// already been conquered.
	ErrAlreadyConquered = errors.New("cell already conquered")

	// ErrNotConquered is returned when an operation requires a
	// conquered cell.
	ErrNotConquered = errors.New("cell not conquered")

	// ErrInsufficientResources is returned when the player cannot
	// afford an operation's cost.
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrAlreadyHasBase is returned when the player already owns a base
	// anywhere.
	ErrAlreadyHasBase = errors.New("player already has a base")

	// ErrNotOwner is returned when operating on a base the player does
	// not own.
	ErrNotOwner = errors.New("base not owned by player")

	// ErrAlreadyMaxLevel is returned when upgrading a base at max
	// level.
	ErrAlreadyMaxLevel = errors.New("base already at max level")

	// ErrNoBase is returned when an operation requires a base the
	// player does not have.
	ErrNoBase = errors.New("player has no base")

	// ErrNoPosition is returned when a command needs the player's
	// position before any fix has arrived.
	ErrNoPosition = errors.New("no position known yet")

	// ErrNoHome is returned when returning to a home that was never set.
	ErrNoHome = errors.New("no home coordinate set")

	// ErrZoneDepleted is returned when collecting from an empty zone.
	ErrZoneDepleted = errors.New("resource zone depleted")

	// ErrNoZone is returned when collecting from a cell with no zone.
	ErrNoZone = errors.New("no resource zone on cell")
)
