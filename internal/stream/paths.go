// Package stream turns a newline-delimited JSON response body into running
// answer snapshots.
package stream

// GJSON paths for stream records.
const (
	PathStatus  = "status"
	PathMessage = "message"
	PathData    = "data"

	// Relative to PathData
	PathUpdateType       = "update_type"
	PathThinking         = "thinking"
	PathAnswer           = "answer"
	PathAccuracyScore    = "accuracy_score"
	PathPrioritizeRender = "prioritize_render"
	PathThinkingComplete = "thinking_complete"
)
