// Package streaming defines the JSON message shapes exchanged with
// presentation clients over the WebSocket gateway.
package streaming

import (
	"encoding/json"

	"github.com/terrahex/engine/pkg/core"
)

// Message type constants for the gateway protocol.
const (
	// Server -> client.
	TypeSnapshot      = "snapshot"
	TypeTerritories   = "territories"
	TypeZones         = "zones"
	TypeCommandResult = "command_result"
	TypeError         = "error"

	// Client -> server.
	TypeCommand = "command"
)

// Command names accepted inside a TypeCommand envelope.
const (
	CmdConquer         = "conquer"
	CmdCollect         = "collect"
	CmdEstablishBase   = "establishBase"
	CmdUpgradeBase     = "upgradeBase"
	CmdSetHome         = "setHome"
	CmdReturnToHome    = "returnToHome"
	CmdRefreshPosition = "refreshPosition"
	CmdSeedZones       = "seedZones"
	CmdSnapshot        = "snapshot"
	CmdTerritories     = "territories"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CommandPayload is the client's command request.
type CommandPayload struct {
	Command string          `json:"command"`
	ID      string          `json:"id,omitempty"` // echoed back in the result
	Args    json.RawMessage `json:"args,omitempty"`
}

// CommandResultPayload reports a command's outcome.
type CommandResultPayload struct {
	Command string `json:"command"`
	ID      string `json:"id,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// CellArgs selects a cell for collect / establish / upgrade commands.
type CellArgs struct {
	Cell core.Cell `json:"cell"`
}

// CoordinateArgs carries an optional coordinate; commands like setHome
// fall back to the current position when it is absent.
type CoordinateArgs struct {
	Coordinate *core.Coordinate `json:"coordinate,omitempty"`
}

// ErrorPayload is a server-side failure unrelated to a command.
type ErrorPayload struct {
	Message string `json:"message"`
}
