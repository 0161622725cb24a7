package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("attendance record not found")
)

const defaultParticipantName = "Aluno"

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// CloseRecord stamps LeftAt on the record. No-op if the record is
		// already closed (LeftAt is write-once); ErrNotFound if the id is unknown.
		CloseRecord(ctx context.Context, recordID string, leftAt time.Time) error
		// GetLatestOpenRecord returns the open record with the highest JoinedAt
		// for (session, participant); ties are broken by store order.
		GetLatestOpenRecord(ctx context.Context, sessionID, participantID string) (Record, error)
		FilterRecords(ctx context.Context, sessionID string, ordering core.DBOrdering) ([]Record, error)
		// CloseOpenRecords closes every open record of the session in a single
		// atomic batch and reports how many were closed.
		CloseOpenRecords(ctx context.Context, sessionID string, leftAt time.Time) (int, error)
	}

	// SessionGetter is the read-only session lookup this service needs;
	// session mutation stays with the session package.
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

// RecordJoin appends an open attendance record. Joining a scheduled session
// is allowed: it tolerates the race between "start" and widget readiness on
// the client.
func (svc *Service) RecordJoin(ctx context.Context, sessionID, participantName string, actor core.Identity) (Joined, error) {
	sess, err := svc.getSession(ctx, sessionID)
	if err != nil {
		return Joined{}, err
	}
	if sess.Status != session.StatusLive && sess.Status != session.StatusScheduled {
		return Joined{}, core.ErrSessionAlreadyEnded()
	}

	participantID := actor.ID
	if participantID == "" {
		participantID = NewEphemeralID()
	}
	name := core.CleanString(participantName)
	if name == "" {
		name = actor.Name
	}
	if name == "" {
		name = defaultParticipantName
	}

	rec, err := svc.repo.CreateRecord(ctx, Record{
		SessionID:       sessionID,
		ParticipantID:   participantID,
		ParticipantName: name,
		JoinedAt:        NowFunc().UTC(),
	})
	if err != nil {
		return Joined{}, err
	}

	return Joined{AttendanceID: rec.ID, RoomName: sess.RoomName}, nil
}

// RecordLeave closes an attendance record. With a record id it closes that
// exact record; otherwise it closes the caller's most recent open record for
// the session. With neither a record id nor an identity it is a silent no-op
// (a participant who never joined may still call leave defensively).
func (svc *Service) RecordLeave(ctx context.Context, sessionID, recordID string, actor core.Identity) error {
	now := NowFunc().UTC()

	if recordID != "" {
		if err := svc.repo.CloseRecord(ctx, recordID, now); err != nil {
			if err == ErrNotFound {
				return core.ErrNotFound("attendance record", "Registro de presença")
			}
			return err
		}
		return nil
	}

	if actor.IsAnonymous() {
		return nil
	}

	rec, err := svc.repo.GetLatestOpenRecord(ctx, sessionID, actor.ID)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	return svc.repo.CloseRecord(ctx, rec.ID, now)
}

// ListForSession returns the session's full attendance report, open records
// included, ordered by join time ascending. Owner only.
func (svc *Service) ListForSession(ctx context.Context, actor core.Identity, sessionID string) ([]Public, error) {
	if actor.IsAnonymous() {
		return nil, core.ErrUnauthorized()
	}
	sess, err := svc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsOwnedBy(actor.ID) {
		return nil, core.ErrForbidden()
	}

	recs, err := svc.repo.FilterRecords(ctx, sessionID, core.DBOrdering{Field: "joined_at", Ascending: true})
	if err != nil {
		return nil, err
	}

	pubs := make([]Public, 0, len(recs))
	for _, rec := range recs {
		pubs = append(pubs, rec.Public())
	}
	return pubs, nil
}

// CloseAllOpen closes every open record for the session as of the given
// time. Used by lifecycle cleanup when the session completes.
func (svc *Service) CloseAllOpen(ctx context.Context, sessionID string, asOf time.Time) (int, error) {
	return svc.repo.CloseOpenRecords(ctx, sessionID, asOf.UTC())
}

func (svc *Service) getSession(ctx context.Context, id string) (session.Session, error) {
	sess, err := svc.sessions.GetSessionByID(ctx, id)
	if err != nil {
		if err == session.ErrNotFound {
			return session.Session{}, core.ErrNotFound("session", "Sessão")
		}
		return session.Session{}, err
	}
	return sess, nil
}
