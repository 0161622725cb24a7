// Package cleanup reacts to session completion: it clears the session's
// feedback flags and closes its open attendance records. Both actions are
// best-effort and idempotent; failures are logged, never retried and never
// surfaced to any user.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
)

type (
	FeedbackCleaner interface {
		ClearAll(ctx context.Context, sessionID string) (int, error)
	}

	AttendanceCloser interface {
		CloseAllOpen(ctx context.Context, sessionID string, asOf time.Time) (int, error)
	}

	Cleaner struct {
		feedback   FeedbackCleaner
		attendance AttendanceCloser
		logger     core.Logger
	}
)

func NewCleaner(feedback FeedbackCleaner, attendance AttendanceCloser, logger core.Logger) *Cleaner {
	return &Cleaner{feedback: feedback, attendance: attendance, logger: logger}
}

// Run consumes SessionCompleted events until the channel closes or ctx is
// done. Meant to be called on its own goroutine.
func (c *Cleaner) Run(ctx context.Context, events <-chan core.SessionCompleted) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.CleanSession(ctx, event)
		}
	}
}

// CleanSession performs the two independent cleanup actions for one
// completed session. Records created after the cleanup snapshot simply
// persist: attendance for a just-ended session is a best-effort signal.
func (c *Cleaner) CleanSession(ctx context.Context, event core.SessionCompleted) {
	if deleted, err := c.feedback.ClearAll(ctx, event.SessionID); err != nil {
		c.logger.Error(fmt.Sprintf("cleanup: clearing feedback for session %s: %v", event.SessionID, err), err)
	} else if deleted > 0 {
		c.logger.Info(fmt.Sprintf("cleanup: cleared %d feedback entries for session %s", deleted, event.SessionID))
	}

	if closed, err := c.attendance.CloseAllOpen(ctx, event.SessionID, event.EndedAt); err != nil {
		c.logger.Error(fmt.Sprintf("cleanup: closing attendance for session %s: %v", event.SessionID, err), err)
	} else if closed > 0 {
		c.logger.Info(fmt.Sprintf("cleanup: marked %d attendance records as left for session %s", closed, event.SessionID))
	}
}
