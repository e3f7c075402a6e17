package models

// TurnState is the lifecycle of one prompt/response exchange.
type TurnState int

const (
	TurnIdle TurnState = iota
	TurnAwaitingFirstByte
	TurnStreaming
	TurnComplete
	TurnAborted
	TurnFailed
)

func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnAwaitingFirstByte:
		return "awaiting-first-byte"
	case TurnStreaming:
		return "streaming"
	case TurnComplete:
		return "complete"
	case TurnAborted:
		return "aborted"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a request is outstanding in this state.
func (s TurnState) InFlight() bool {
	return s == TurnAwaitingFirstByte || s == TurnStreaming
}

// Terminal reports whether the turn has ended.
func (s TurnState) Terminal() bool {
	return s == TurnComplete || s == TurnAborted || s == TurnFailed
}
