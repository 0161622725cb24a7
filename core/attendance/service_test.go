package attendance_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/session"
	dummydb "github.com/tadeufagundes/go-geo-meet/storage/database/dummy"
	testutil "github.com/tadeufagundes/go-geo-meet/tests"
)

var (
	teacher = core.Identity{ID: "teacher-1", Name: "Ana", Email: "ana@escola.br"}
	student = core.Identity{ID: "student-1", Name: "João"}
	anon    = core.Identity{}
)

func setup(t *testing.T) (*attendance.Service, attendance.Repository, session.Repository) {
	t.Helper()

	db := dummydb.Open()
	sessRepo := dummydb.NewSessionRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	return attendance.NewService(attRepo, sessRepo), attRepo, sessRepo
}

func TestService_RecordJoin(t *testing.T) {
	svc, _, sessRepo := setup(t)
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	scheduled := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusScheduled)
	completed := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusCompleted)

	tests := []struct {
		name            string
		sessionID       string
		participantName string
		actor           core.Identity
		wantErr         string
		wantName        string
		wantEphemeral   bool
	}{
		{name: "unknown session", sessionID: "nope", wantErr: core.CodeNotFound},
		{name: "completed session", sessionID: completed.ID, wantErr: core.CodeSessionAlreadyEnded},
		{name: "live, authenticated", sessionID: live.ID, actor: student, wantName: "João"},
		{name: "scheduled joins allowed", sessionID: scheduled.ID, actor: student, wantName: "João"},
		{name: "explicit name wins", sessionID: live.ID, participantName: "Joãozinho", actor: student, wantName: "Joãozinho"},
		{name: "anonymous with name", sessionID: live.ID, participantName: "Maria", wantName: "Maria", wantEphemeral: true},
		{name: "anonymous without name", sessionID: live.ID, wantName: "Aluno", wantEphemeral: true},
		{name: "blank name falls back", sessionID: live.ID, participantName: "   ", wantName: "Aluno", wantEphemeral: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined, err := svc.RecordJoin(ctx, tt.sessionID, tt.participantName, tt.actor)
			if tt.wantErr != "" {
				if appErr, ok := core.AsAppError(err); !ok || appErr.Code != tt.wantErr {
					t.Fatalf("RecordJoin() error = %v, want code %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RecordJoin() unexpected error = %v", err)
			}
			if joined.AttendanceID == "" {
				t.Error("RecordJoin() did not assign an attendance id")
			}
			if joined.RoomName == "" {
				t.Error("RecordJoin() did not return the room name")
			}

			recs, err := svc.ListForSession(ctx, teacher, tt.sessionID)
			if err != nil {
				t.Fatalf("ListForSession() failed: %v", err)
			}
			var rec *attendance.Public
			for i := range recs {
				if recs[i].ID == joined.AttendanceID {
					rec = &recs[i]
				}
			}
			if rec == nil {
				t.Fatalf("record %v not found in attendance report", joined.AttendanceID)
			}
			if rec.ParticipantName != tt.wantName {
				t.Errorf("participantName = %q, want %q", rec.ParticipantName, tt.wantName)
			}
			if tt.wantEphemeral != strings.HasPrefix(rec.ParticipantID, "anon_") {
				t.Errorf("participantId = %q, wantEphemeral %v", rec.ParticipantID, tt.wantEphemeral)
			}
			if rec.LeftAt != "" {
				t.Errorf("new record is closed: leftAt = %q", rec.LeftAt)
			}
		})
	}
}

func TestService_RecordJoin_concurrent(t *testing.T) {
	svc, _, sessRepo := setup(t)
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.RecordJoin(ctx, live.ID, "", anon); err != nil {
				t.Errorf("RecordJoin() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	recs, err := svc.ListForSession(ctx, teacher, live.ID)
	if err != nil {
		t.Fatalf("ListForSession() failed: %v", err)
	}
	if len(recs) != n {
		t.Fatalf("got %v records, want %v", len(recs), n)
	}
	seen := make(map[string]bool, n)
	for _, rec := range recs {
		if seen[rec.ParticipantID] {
			t.Errorf("duplicate ephemeral id %q", rec.ParticipantID)
		}
		seen[rec.ParticipantID] = true
	}
}

func TestService_RecordLeave(t *testing.T) {
	svc, attRepo, sessRepo := setup(t)
	ctx := context.Background()

	now := time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)
	attendance.NowFunc = func() time.Time { return now }
	defer func() { attendance.NowFunc = time.Now }()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)

	t.Run("by record id", func(t *testing.T) {
		rec := testutil.CreateAttendance(t, attRepo, live.ID, "student-9", "Bia", now.Add(-time.Hour))

		if err := svc.RecordLeave(ctx, live.ID, rec.ID, anon); err != nil {
			t.Fatalf("RecordLeave() failed: %v", err)
		}
		assertClosed(t, svc, live.ID, rec.ID, now)
	})

	t.Run("unknown record id", func(t *testing.T) {
		err := svc.RecordLeave(ctx, live.ID, "nope", anon)
		if appErr, ok := core.AsAppError(err); !ok || appErr.Code != core.CodeNotFound {
			t.Fatalf("RecordLeave() error = %v, want code %v", err, core.CodeNotFound)
		}
	})

	t.Run("left-at is write-once", func(t *testing.T) {
		rec := testutil.CreateAttendance(t, attRepo, live.ID, "student-10", "Edu", now.Add(-time.Hour))
		if err := svc.RecordLeave(ctx, live.ID, rec.ID, anon); err != nil {
			t.Fatalf("RecordLeave() failed: %v", err)
		}

		later := now.Add(30 * time.Minute)
		attendance.NowFunc = func() time.Time { return later }
		defer func() { attendance.NowFunc = func() time.Time { return now } }()

		if err := svc.RecordLeave(ctx, live.ID, rec.ID, anon); err != nil {
			t.Fatalf("second RecordLeave() failed: %v", err)
		}
		assertClosed(t, svc, live.ID, rec.ID, now) // not re-stamped
	})

	t.Run("latest open record for the actor", func(t *testing.T) {
		first := testutil.CreateAttendance(t, attRepo, live.ID, student.ID, "João", now.Add(-2*time.Hour))
		second := testutil.CreateAttendance(t, attRepo, live.ID, student.ID, "João", now.Add(-time.Hour))

		if err := svc.RecordLeave(ctx, live.ID, "", student); err != nil {
			t.Fatalf("RecordLeave() failed: %v", err)
		}
		assertClosed(t, svc, live.ID, second.ID, now)

		recs, _ := svc.ListForSession(ctx, teacher, live.ID)
		for _, rec := range recs {
			if rec.ID == first.ID && rec.LeftAt != "" {
				t.Errorf("older record %v was closed too", first.ID)
			}
		}
	})

	t.Run("no open record is a no-op", func(t *testing.T) {
		if err := svc.RecordLeave(ctx, live.ID, "", core.Identity{ID: "stranger"}); err != nil {
			t.Fatalf("RecordLeave() failed: %v", err)
		}
	})

	t.Run("anonymous without record id is a no-op", func(t *testing.T) {
		if err := svc.RecordLeave(ctx, live.ID, "", anon); err != nil {
			t.Fatalf("RecordLeave() failed: %v", err)
		}
	})
}

func TestService_ListForSession(t *testing.T) {
	svc, attRepo, sessRepo := setup(t)
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	now := time.Now().UTC().Truncate(time.Second)
	r2 := testutil.CreateAttendance(t, attRepo, live.ID, "s2", "Bia", now.Add(-time.Hour))
	r1 := testutil.CreateAttendance(t, attRepo, live.ID, "s1", "Ary", now.Add(-2*time.Hour))

	t.Run("auth required", func(t *testing.T) {
		_, err := svc.ListForSession(ctx, anon, live.ID)
		if appErr, ok := core.AsAppError(err); !ok || appErr.Code != core.CodeUnauthorized {
			t.Fatalf("ListForSession() error = %v, want code %v", err, core.CodeUnauthorized)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		_, err := svc.ListForSession(ctx, core.Identity{ID: "teacher-2"}, live.ID)
		if appErr, ok := core.AsAppError(err); !ok || appErr.Code != core.CodeForbidden {
			t.Fatalf("ListForSession() error = %v, want code %v", err, core.CodeForbidden)
		}
	})

	t.Run("ordered by join time", func(t *testing.T) {
		recs, err := svc.ListForSession(ctx, teacher, live.ID)
		if err != nil {
			t.Fatalf("ListForSession() failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("got %v records, want 2", len(recs))
		}
		if recs[0].ID != r1.ID || recs[1].ID != r2.ID {
			t.Errorf("order = [%v %v], want [%v %v]", recs[0].ID, recs[1].ID, r1.ID, r2.ID)
		}
	})
}

func TestService_CloseAllOpen(t *testing.T) {
	svc, attRepo, sessRepo := setup(t)
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	now := time.Now().UTC().Truncate(time.Second)

	open1 := testutil.CreateAttendance(t, attRepo, live.ID, "s1", "Ary", now.Add(-time.Hour))
	open2 := testutil.CreateAttendance(t, attRepo, live.ID, "s2", "Bia", now.Add(-time.Hour))
	closed := testutil.CreateAttendance(t, attRepo, live.ID, "s3", "Caio", now.Add(-2*time.Hour))
	if err := attRepo.CloseRecord(ctx, closed.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("CloseRecord() failed: %v", err)
	}

	endedAt := now.Add(-10 * time.Minute)
	n, err := svc.CloseAllOpen(ctx, live.ID, endedAt)
	if err != nil {
		t.Fatalf("CloseAllOpen() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CloseAllOpen() = %v, want 2", n)
	}

	assertClosed(t, svc, live.ID, open1.ID, endedAt)
	assertClosed(t, svc, live.ID, open2.ID, endedAt)
	assertClosed(t, svc, live.ID, closed.ID, now.Add(-time.Hour)) // untouched
}

func assertClosed(t *testing.T, svc *attendance.Service, sessionID, recordID string, leftAt time.Time) {
	t.Helper()

	recs, err := svc.ListForSession(context.Background(), teacher, sessionID)
	if err != nil {
		t.Fatalf("ListForSession() failed: %v", err)
	}
	for _, rec := range recs {
		if rec.ID != recordID {
			continue
		}
		if want := leftAt.UTC().Format(time.RFC3339); rec.LeftAt != want {
			t.Errorf("record %v leftAt = %q, want %q", recordID, rec.LeftAt, want)
		}
		return
	}
	t.Fatalf("record %v not found", recordID)
}
