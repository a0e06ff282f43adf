// Package status defines the control-flow vocabulary of the dissector: the
// per-direction stream state returned by feed calls, hook verdicts, and the
// sentinel errors shared across parsing stages.
package status

// Status is both the per-direction stream state kept on a connection and the
// value a feed call returns. A direction normally cycles Open -> Data ->
// Closed; the remaining states are terminal or transitional.
type Status uint8

const (
	// New marks a direction that has not seen bytes yet.
	New Status = iota
	// Open marks a direction that is ready for input.
	Open
	// Data means the direction consumed everything and wants more input.
	Data
	// DataOther means progress requires bytes from the opposite direction
	// first (CONNECT probing, interim responses). The caller should feed
	// the other side, then re-supply the unconsumed remainder.
	DataOther
	// Stop means a hook vetoed further inspection of this direction.
	Stop
	// Tunnel means the direction carries opaque non-HTTP bytes from now on
	// (established CONNECT, upgraded protocol, stray 0.9 traffic).
	Tunnel
	// Closed marks a half-closed direction.
	Closed
	// Error is terminal: the machine cannot locate the next logical unit.
	// Already-delivered data and flags remain valid.
	Error
)

var statusNames = [...]string{
	New:       "NEW",
	Open:      "OPEN",
	Data:      "DATA",
	DataOther: "DATA_OTHER",
	Stop:      "STOP",
	Tunnel:    "TUNNEL",
	Closed:    "CLOSED",
	Error:     "ERROR",
}

func (s Status) String() string {
	if int(s) >= len(statusNames) {
		return "UNKNOWN"
	}

	return statusNames[s]
}

// Direction names the two halves of a connection. Request is traffic from
// the client to the server, Response the reverse.
type Direction uint8

const (
	DirRequest Direction = iota
	DirResponse
)

func (d Direction) String() string {
	if d == DirRequest {
		return "request"
	}

	return "response"
}

// Control is the verdict a hook returns.
type Control uint8

const (
	// Continue proceeds with parsing.
	Continue Control = iota
	// Pause suspends the direction; unconsumed bytes are reported back to
	// the caller for a later feed.
	Pause
	// Abort is direction-fatal, equivalent to a desynchronization.
	Abort
)
