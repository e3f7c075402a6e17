package models

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// GreetingText is the assistant message a fresh conversation starts with.
const GreetingText = "Hello! I'm your tactical soccer assistant. How can I help you today?"

// ErrorReplyText replaces the in-flight assistant message when a turn fails.
const ErrorReplyText = "Sorry, I encountered an error. Please try again."

// ChatMessage represents a message in the conversation
type ChatMessage struct {
	Role            Role   `json:"role"`
	Content         string `json:"content"` // markdown
	Thinking        string `json:"thinking,omitempty"`
	ConfidenceScore *int   `json:"confidence_score,omitempty"` // 0-100, set by final records only
}

// Greeting returns the opening assistant message.
func Greeting() ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: GreetingText}
}

// HasConfidence reports whether a confidence score has been attached.
func (m ChatMessage) HasConfidence() bool {
	return m.ConfidenceScore != nil
}

// Confidence returns the score, or 0 when none is set.
func (m ChatMessage) Confidence() int {
	if m.ConfidenceScore == nil {
		return 0
	}
	return *m.ConfidenceScore
}

// Clone returns a deep copy, so callers can hold on to it while the original keeps mutating.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	if m.ConfidenceScore != nil {
		score := *m.ConfidenceScore
		out.ConfidenceScore = &score
	}
	return out
}

// CloneMessages copies a message list.
func CloneMessages(msgs []ChatMessage) []ChatMessage {
	if msgs == nil {
		return nil
	}
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// IntPtr is a small helper for optional scores.
func IntPtr(v int) *int {
	return &v
}
