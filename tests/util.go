package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

// NewConfig returns a Config suitable for tests; no env files are read.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "go-geo-meet",
		Env:              "TEST",
		Debug:            true,
		TestMode:         true,
		SecretKey:        "s3cr3t-test-key",
		FrontendBaseURL:  "http://localhost:3000",
		MeetBaseURL:      "https://meet.jit.si",
		DefaultFromEmail: "noreply@gogeomeet.test",
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
	}
}

func CreateSession(
	t *testing.T,
	repo session.Repository,
	teacher core.Identity,
	groupID, groupName, status string,
	scheduledAt ...time.Time,
) session.Session {
	t.Helper()

	now := time.Now().UTC()
	tstamp := now
	if len(scheduledAt) > 0 {
		tstamp = scheduledAt[0].UTC()
	}
	sess := session.Session{
		GroupID:      groupID,
		GroupName:    groupName,
		TeacherID:    teacher.ID,
		TeacherName:  teacher.Name,
		RoomName:     session.GenerateRoomName(groupName),
		RoomPassword: session.GenerateRoomPassword(),
		Status:       status,
		ScheduledAt:  tstamp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == session.StatusLive {
		sess.StartedAt = now
	}
	if status == session.StatusCompleted {
		sess.StartedAt = now
		sess.EndedAt = now
	}
	sess, err := repo.CreateSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

func CreateAttendance(
	t *testing.T,
	repo attendance.Repository,
	sessionID, participantID, participantName string,
	joinedAt time.Time,
) attendance.Record {
	t.Helper()

	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		SessionID:       sessionID,
		ParticipantID:   participantID,
		ParticipantName: participantName,
		JoinedAt:        joinedAt.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAttendance() failed: %v", err)
	}
	return rec
}

// Logger captures log calls for assertions; safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, fmt.Sprintf("%s: %s", level, msg))
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg) }

var _ core.Logger = (*Logger)(nil)
