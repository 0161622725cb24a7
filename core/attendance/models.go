package attendance

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record is one join-to-leave interval for one participant in one session.
// A zero LeftAt means the record is still open. LeftAt is write-once.
type Record struct {
	ID              string
	SessionID       string
	ParticipantID   string
	ParticipantName string
	JoinedAt        time.Time // UTC
	LeftAt          time.Time // UTC; zero = open
}

func (r Record) IsOpen() bool {
	return r.LeftAt.IsZero()
}

// Public is the Record projection serialized to clients, ISO-8601 timestamps.
type Public struct {
	ID              string `json:"id"`
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	JoinedAt        string `json:"joinedAt"`
	LeftAt          string `json:"leftAt,omitempty"`
}

func (r Record) Public() Public {
	pub := Public{
		ID:              r.ID,
		ParticipantID:   r.ParticipantID,
		ParticipantName: r.ParticipantName,
		JoinedAt:        r.JoinedAt.UTC().Format(time.RFC3339),
	}
	if !r.LeftAt.IsZero() {
		pub.LeftAt = r.LeftAt.UTC().Format(time.RFC3339)
	}
	return pub
}

// Joined is the join response: the record id plus the room name, so joining
// the widget takes a single round trip.
type Joined struct {
	AttendanceID string `json:"attendanceId"`
	RoomName     string `json:"roomName"`
}

// NewEphemeralID generates a participant id for unauthenticated callers.
// Time-based prefix + random suffix keeps collisions negligible.
func NewEphemeralID() string {
	millis := strconv.FormatInt(NowFunc().UnixNano()/1e6, 10)
	return "anon_" + millis + "_" + uuid.New().String()[:8]
}
