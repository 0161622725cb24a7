package cleanup_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/cleanup"
	"github.com/tadeufagundes/go-geo-meet/core/feedback"
	"github.com/tadeufagundes/go-geo-meet/core/session"
	dummydb "github.com/tadeufagundes/go-geo-meet/storage/database/dummy"
	testutil "github.com/tadeufagundes/go-geo-meet/tests"
)

var teacher = core.Identity{ID: "teacher-1", Name: "Ana", Email: "ana@escola.br"}

func TestCleaner_CleanSession(t *testing.T) {
	db := dummydb.Open()
	sessRepo := dummydb.NewSessionRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessRepo)
	fbSvc := feedback.NewService(dummydb.NewFeedbackRepository(db), sessRepo)
	logger := testutil.NewLogger()

	cleaner := cleanup.NewCleaner(fbSvc, attSvc, logger)
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	other := testutil.CreateSession(t, sessRepo, teacher, "g2", "Mat 7A", session.StatusLive)

	now := time.Now().UTC().Truncate(time.Second)
	open := testutil.CreateAttendance(t, attRepo, live.ID, "s1", "Ary", now.Add(-time.Hour))
	untouched := testutil.CreateAttendance(t, attRepo, other.ID, "s2", "Bia", now.Add(-time.Hour))
	if _, err := fbSvc.Toggle(ctx, live.ID, core.Identity{ID: "s1", Name: "Ary"}, feedback.Toggle{}); err != nil {
		t.Fatalf("Toggle() failed: %v", err)
	}
	if _, err := fbSvc.Toggle(ctx, other.ID, core.Identity{ID: "s2", Name: "Bia"}, feedback.Toggle{}); err != nil {
		t.Fatalf("Toggle() failed: %v", err)
	}

	endedAt := now
	cleaner.CleanSession(ctx, core.SessionCompleted{SessionID: live.ID, EndedAt: endedAt})

	// feedback of the completed session is gone, the other session's stays
	list, _ := fbSvc.List(ctx, live.ID)
	if list.ConfusedCount != 0 {
		t.Errorf("confusedCount = %v, want 0 after cleanup", list.ConfusedCount)
	}
	otherList, _ := fbSvc.List(ctx, other.ID)
	if otherList.ConfusedCount != 1 {
		t.Errorf("other session confusedCount = %v, want 1", otherList.ConfusedCount)
	}

	// open attendance was closed as of the session end
	recs, err := attSvc.ListForSession(ctx, teacher, live.ID)
	if err != nil {
		t.Fatalf("ListForSession() failed: %v", err)
	}
	if want := endedAt.Format(time.RFC3339); recs[0].ID != open.ID || recs[0].LeftAt != want {
		t.Errorf("record = %+v, want leftAt %v", recs[0], want)
	}

	otherRecs, _ := attSvc.ListForSession(ctx, teacher, other.ID)
	if otherRecs[0].ID != untouched.ID || otherRecs[0].LeftAt != "" {
		t.Errorf("other session record was closed: %+v", otherRecs[0])
	}
}

func TestCleaner_CleanSession_idempotent(t *testing.T) {
	db := dummydb.Open()
	sessRepo := dummydb.NewSessionRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessRepo)
	fbSvc := feedback.NewService(dummydb.NewFeedbackRepository(db), sessRepo)

	cleaner := cleanup.NewCleaner(fbSvc, attSvc, testutil.NewLogger())
	ctx := context.Background()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	now := time.Now().UTC().Truncate(time.Second)
	testutil.CreateAttendance(t, attRepo, live.ID, "s1", "Ary", now.Add(-time.Hour))

	event := core.SessionCompleted{SessionID: live.ID, EndedAt: now}
	cleaner.CleanSession(ctx, event)
	cleaner.CleanSession(ctx, event) // second run finds nothing to do

	recs, err := attSvc.ListForSession(ctx, teacher, live.ID)
	if err != nil {
		t.Fatalf("ListForSession() failed: %v", err)
	}
	if want := now.Format(time.RFC3339); recs[0].LeftAt != want {
		t.Errorf("leftAt = %v, want %v (not re-stamped)", recs[0].LeftAt, want)
	}
}

func TestCleaner_CleanSession_logsFailures(t *testing.T) {
	logger := testutil.NewLogger()
	cleaner := cleanup.NewCleaner(failingCleaner{}, failingCloser{}, logger)

	cleaner.CleanSession(context.Background(), core.SessionCompleted{SessionID: "s1", EndedAt: time.Now()})

	if len(logger.Entries) != 2 {
		t.Fatalf("got %v log entries, want 2", len(logger.Entries))
	}
	for _, entry := range logger.Entries {
		if !strings.HasPrefix(entry, "ERROR: cleanup:") {
			t.Errorf("entry = %q, want an ERROR cleanup entry", entry)
		}
	}
}

func TestCleaner_Run(t *testing.T) {
	db := dummydb.Open()
	sessRepo := dummydb.NewSessionRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessRepo)
	fbSvc := feedback.NewService(dummydb.NewFeedbackRepository(db), sessRepo)

	events := core.NewSessionEvents()
	cleaner := cleanup.NewCleaner(fbSvc, attSvc, testutil.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := events.Subscribe()
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx, sub)
		close(done)
	}()

	live := testutil.CreateSession(t, sessRepo, teacher, "g1", "Bio 9B", session.StatusLive)
	now := time.Now().UTC().Truncate(time.Second)
	testutil.CreateAttendance(t, attRepo, live.ID, "s1", "Ary", now.Add(-time.Hour))

	events.Publish(core.SessionCompleted{SessionID: live.ID, EndedAt: now})

	deadline := time.After(2 * time.Second)
	for {
		recs, err := attSvc.ListForSession(context.Background(), teacher, live.ID)
		if err != nil {
			t.Fatalf("ListForSession() failed: %v", err)
		}
		if recs[0].LeftAt != "" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("cleanup did not run in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// closing the bus stops the worker
	events.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after the bus closed")
	}
}

type failingCleaner struct{}

func (failingCleaner) ClearAll(context.Context, string) (int, error) {
	return 0, errForced
}

type failingCloser struct{}

func (failingCloser) CloseAllOpen(context.Context, string, time.Time) (int, error) {
	return 0, errForced
}

var errForced = errors.New("forced failure")
