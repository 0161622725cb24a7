package feedback

import "time"

// Flag is a participant's current "has a question" state for a session.
// Identity is the (SessionID, ParticipantID) composite key itself, so
// toggling is an upsert and cardinality per pair is exactly one.
type Flag struct {
	SessionID       string
	ParticipantID   string
	ParticipantName string
	Confused        bool
	UpdatedAt       time.Time // UTC
}

// Toggle is the toggle request body. A bare call (no isConfused) means
// "I have a question".
type Toggle struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	IsConfused      *bool  `json:"isConfused"`
}

// ConfusedStudent is one entry of the teacher-polled list.
type ConfusedStudent struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	Since           string `json:"since"`
}

// List is the feedback poll response.
type List struct {
	ConfusedCount int               `json:"confusedCount"`
	Students      []ConfusedStudent `json:"students"`
}

func (f Flag) confusedStudent() ConfusedStudent {
	return ConfusedStudent{
		ParticipantID:   f.ParticipantID,
		ParticipantName: f.ParticipantName,
		Since:           f.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
