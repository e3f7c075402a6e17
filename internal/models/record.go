package models

// UpdateType tags what a stream record carries.
type UpdateType string

const (
	UpdateThinking UpdateType = "thinking"
	UpdateAnswer   UpdateType = "answer"
	UpdateFinal    UpdateType = "final"
)

// StatusSuccess is the only record status that changes state.
const StatusSuccess = "success"

// CarriesAnswer reports whether records of this type may replace the answer text.
func (u UpdateType) CarriesAnswer() bool {
	return u == UpdateAnswer || u == UpdateFinal
}

// StreamRecord is one newline-delimited JSON object from /api/tactics.
type StreamRecord struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    *RecordData `json:"data,omitempty"`
}

// RecordData is the payload of a successful record. Thinking and Answer are
// cumulative: each record resends the full text so far.
type RecordData struct {
	UpdateType       UpdateType `json:"update_type"`
	Thinking         string     `json:"thinking,omitempty"`
	Answer           *string    `json:"answer,omitempty"`
	AccuracyScore    *int       `json:"accuracy_score,omitempty"`
	PrioritizeRender bool       `json:"prioritize_render,omitempty"`
	ThinkingComplete bool       `json:"thinking_complete,omitempty"`
}

// IsSuccess reports whether the record should be applied.
func (r StreamRecord) IsSuccess() bool {
	return r.Status == StatusSuccess && r.Data != nil
}

// Snapshot is the running state after a record has been applied.
type Snapshot struct {
	Thinking        string
	Answer          string
	ConfidenceScore *int
	IsFinal         bool
	UpdateType      UpdateType

	// Flush asks the view to render this snapshot without throttling.
	Flush bool
}

// HasConfidence reports whether a final record has set a score.
func (s Snapshot) HasConfidence() bool {
	return s.ConfidenceScore != nil
}
