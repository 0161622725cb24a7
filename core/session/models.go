package session

import (
	"time"
)

// Session statuses. Transitions only move forward:
// scheduled -> live -> completed. `cancelled` is reserved; no operation
// transitions into it yet.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session is one scheduled/live/completed class meeting.
// RoomName is globally unique and immutable after creation; TeacherID never
// changes. Zero time values mean "not set" (StartedAt, EndedAt).
type Session struct {
	ID           string
	GroupID      string
	GroupName    string
	TeacherID    string
	TeacherName  string
	RoomName     string
	RoomPassword string
	Status       string
	ScheduledAt  time.Time // UTC
	StartedAt    time.Time // UTC; set exactly once, on the first start
	EndedAt      time.Time // UTC; set on completion
	CreatedAt    time.Time // UTC
	UpdatedAt    time.Time // UTC
}

func (s Session) IsOwnedBy(teacherID string) bool {
	return s.TeacherID == teacherID
}

// NewSession contains information needed to create a new Session.
type NewSession struct {
	GroupID     string     `json:"groupId" validate:"required"`
	GroupName   string     `json:"groupName" validate:"required"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// Created is the creation response; the only place RoomPassword leaves the server.
type Created struct {
	ID           string `json:"id"`
	RoomName     string `json:"roomName"`
	RoomPassword string `json:"roomPassword"`
	JoinURL      string `json:"joinUrl"`
	Status       string `json:"status"`
}

// Public is the redacted projection of a Session (no room password),
// timestamps serialized as ISO-8601.
type Public struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId"`
	GroupName   string `json:"groupName"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	RoomName    string `json:"roomName"`
	Status      string `json:"status"`
	ScheduledAt string `json:"scheduledAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	EndedAt     string `json:"endedAt,omitempty"`
}

func (s Session) Public() Public {
	pub := Public{
		ID:          s.ID,
		GroupID:     s.GroupID,
		GroupName:   s.GroupName,
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		RoomName:    s.RoomName,
		Status:      s.Status,
		ScheduledAt: s.ScheduledAt.UTC().Format(time.RFC3339),
	}
	if !s.StartedAt.IsZero() {
		pub.StartedAt = s.StartedAt.UTC().Format(time.RFC3339)
	}
	if !s.EndedAt.IsZero() {
		pub.EndedAt = s.EndedAt.UTC().Format(time.RFC3339)
	}
	return pub
}

// Started is the start response: everything a client needs to join the room.
type Started struct {
	RoomName string `json:"roomName"`
	JoinURL  string `json:"joinUrl"`
}
