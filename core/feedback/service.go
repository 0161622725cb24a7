package feedback

import (
	"context"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

var NowFunc = time.Now // mockable

const defaultParticipantName = "Aluno"

type (
	Repository interface {
		// UpsertFlag writes the flag keyed by (SessionID, ParticipantID),
		// overwriting Confused, ParticipantName and UpdatedAt.
		UpsertFlag(ctx context.Context, flag Flag) (Flag, error)
		FilterFlags(ctx context.Context, sessionID string, confusedOnly bool) ([]Flag, error)
		// DeleteSessionFlags removes all flags of the session, confused or
		// not, in a single atomic batch; reports how many were deleted.
		DeleteSessionFlags(ctx context.Context, sessionID string) (int, error)
	}

	// SessionGetter is the read-only session lookup this service needs.
	SessionGetter interface {
		GetSessionByID(ctx context.Context, id string) (session.Session, error)
	}

	Service struct {
		repo     Repository
		sessions SessionGetter
	}
)

func NewService(repo Repository, sessions SessionGetter) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Toggle upserts the caller's feedback flag. The session must exist but its
// status is deliberately not checked: toggling feedback on a scheduled or
// just-ended session is accepted lenient behavior.
func (svc *Service) Toggle(ctx context.Context, sessionID string, actor core.Identity, tog Toggle) (bool, error) {
	participantID := actor.ID
	if participantID == "" {
		participantID = core.CleanString(tog.ParticipantID)
	}
	if participantID == "" {
		return false, core.ErrBadRequest("missing participant id", "É necessário identificar o aluno.")
	}

	if _, err := svc.sessions.GetSessionByID(ctx, sessionID); err != nil {
		if err == session.ErrNotFound {
			return false, core.ErrNotFound("session", "Sessão")
		}
		return false, err
	}

	confused := true
	if tog.IsConfused != nil {
		confused = *tog.IsConfused
	}
	name := core.CleanString(tog.ParticipantName)
	if name == "" {
		name = actor.Name
	}
	if name == "" {
		name = defaultParticipantName
	}

	flag, err := svc.repo.UpsertFlag(ctx, Flag{
		SessionID:       sessionID,
		ParticipantID:   participantID,
		ParticipantName: name,
		Confused:        confused,
		UpdatedAt:       NowFunc().UTC(),
	})
	if err != nil {
		return false, err
	}
	return flag.Confused, nil
}

// List returns the confused participants of a session plus a count.
// Unauthenticated: it is polled frequently by the teacher client and may be
// read by other participants.
func (svc *Service) List(ctx context.Context, sessionID string) (List, error) {
	flags, err := svc.repo.FilterFlags(ctx, sessionID, true)
	if err != nil {
		return List{}, err
	}

	students := make([]ConfusedStudent, 0, len(flags))
	for _, flag := range flags {
		students = append(students, flag.confusedStudent())
	}
	return List{ConfusedCount: len(students), Students: students}, nil
}

// ClearSession deletes all flags for the session. Owner only.
func (svc *Service) ClearSession(ctx context.Context, actor core.Identity, sessionID string) (int, error) {
	if actor.IsAnonymous() {
		return 0, core.ErrUnauthorized()
	}

	sess, err := svc.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		if err == session.ErrNotFound {
			return 0, core.ErrNotFound("session", "Sessão")
		}
		return 0, err
	}
	if !sess.IsOwnedBy(actor.ID) {
		return 0, core.ErrForbidden()
	}

	return svc.repo.DeleteSessionFlags(ctx, sessionID)
}

// ClearAll deletes all flags for the session without an ownership check.
// Reserved for the privileged lifecycle cleanup path.
func (svc *Service) ClearAll(ctx context.Context, sessionID string) (int, error) {
	return svc.repo.DeleteSessionFlags(ctx, sessionID)
}
