package session

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/tadeufagundes/go-geo-meet/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("session not found")
)

const listLimit = 50

type (
	QueryFilter struct {
		TeacherID string
		Status    string
	}

	Repository interface {
		CreateSession(ctx context.Context, sess Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// FilterSessions applies AND operation on available QueryFilter fields.
		FilterSessions(ctx context.Context, filter QueryFilter, ordering core.DBOrdering, limit int) ([]Session, error)
		// UpdateSession overwrites the session's mutable fields (status and
		// time stamps) in a single atomic write.
		UpdateSession(ctx context.Context, sess Session) (Session, error)
	}

	Service struct {
		repo    Repository
		events  *core.SessionEvents
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, events *core.SessionEvents, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, events: events, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) Create(ctx context.Context, actor core.Identity, ns NewSession) (Created, error) {
	if actor.IsAnonymous() {
		return Created{}, core.ErrUnauthorized()
	}

	ns.GroupID = core.CleanString(ns.GroupID)
	ns.GroupName = core.CleanString(ns.GroupName)
	if ns.GroupID == "" || ns.GroupName == "" {
		return Created{}, core.ErrBadRequest("missing required fields", "É necessário informar a turma.")
	}

	now := NowFunc().UTC()
	scheduledAt := now
	if ns.ScheduledAt != nil {
		scheduledAt = ns.ScheduledAt.UTC()
	}

	teacherName := actor.Name
	if teacherName == "" {
		teacherName = actor.Email
	}

	sess := Session{
		GroupID:      ns.GroupID,
		GroupName:    ns.GroupName,
		TeacherID:    actor.ID,
		TeacherName:  teacherName,
		RoomName:     GenerateRoomName(ns.GroupName),
		RoomPassword: GenerateRoomPassword(),
		Status:       StatusScheduled,
		ScheduledAt:  scheduledAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sess, err := svc.repo.CreateSession(ctx, sess)
	if err != nil {
		return Created{}, err
	}

	svc.sendScheduledEmail(actor, sess)

	return Created{
		ID:           sess.ID,
		RoomName:     sess.RoomName,
		RoomPassword: sess.RoomPassword,
		JoinURL:      JoinURL(svc.conf.MeetBaseURL, sess.RoomName),
		Status:       sess.Status,
	}, nil
}

// Get returns the redacted projection of a session; no authentication is
// required so participants can fetch join info.
func (svc *Service) Get(ctx context.Context, id string) (Public, error) {
	sess, err := svc.getSession(ctx, id)
	if err != nil {
		return Public{}, err
	}
	return sess.Public(), nil
}

func (svc *Service) List(ctx context.Context, actor core.Identity, status string) ([]Public, error) {
	if actor.IsAnonymous() {
		return nil, core.ErrUnauthorized()
	}

	sessions, err := svc.repo.FilterSessions(
		ctx,
		QueryFilter{TeacherID: actor.ID, Status: status},
		core.DBOrdering{Field: "scheduled_at"},
		listLimit,
	)
	if err != nil {
		return nil, err
	}

	pubs := make([]Public, 0, len(sessions))
	for _, sess := range sessions {
		pubs = append(pubs, sess.Public())
	}
	return pubs, nil
}

// Start transitions a session to live. Idempotent while already live;
// StartedAt is only stamped on the first start.
func (svc *Service) Start(ctx context.Context, actor core.Identity, id string) (Started, error) {
	sess, err := svc.getOwnedSession(ctx, actor, id)
	if err != nil {
		return Started{}, err
	}
	if sess.Status == StatusCompleted {
		return Started{}, core.ErrSessionAlreadyEnded()
	}

	now := NowFunc().UTC()
	sess.Status = StatusLive
	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	sess.UpdatedAt = now

	if sess, err = svc.repo.UpdateSession(ctx, sess); err != nil {
		return Started{}, err
	}

	return Started{
		RoomName: sess.RoomName,
		JoinURL:  JoinURL(svc.conf.MeetBaseURL, sess.RoomName),
	}, nil
}

// End transitions a session to completed and publishes SessionCompleted so
// that lifecycle cleanup runs. Ending an already-completed session is
// accepted: it re-stamps EndedAt/UpdatedAt without re-publishing.
func (svc *Service) End(ctx context.Context, actor core.Identity, id string) error {
	sess, err := svc.getOwnedSession(ctx, actor, id)
	if err != nil {
		return err
	}

	wasCompleted := sess.Status == StatusCompleted

	now := NowFunc().UTC()
	sess.Status = StatusCompleted
	sess.EndedAt = now
	sess.UpdatedAt = now

	if _, err = svc.repo.UpdateSession(ctx, sess); err != nil {
		return err
	}

	if !wasCompleted {
		svc.events.Publish(core.SessionCompleted{SessionID: sess.ID, EndedAt: now})
	}
	return nil
}

func (svc *Service) getSession(ctx context.Context, id string) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Session{}, core.ErrNotFound("session", "Sessão")
		}
		return Session{}, err
	}
	return sess, nil
}

func (svc *Service) getOwnedSession(ctx context.Context, actor core.Identity, id string) (Session, error) {
	if actor.IsAnonymous() {
		return Session{}, core.ErrUnauthorized()
	}
	sess, err := svc.getSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !sess.IsOwnedBy(actor.ID) {
		return Session{}, core.ErrForbidden()
	}
	return sess, nil
}

func (svc *Service) sendScheduledEmail(actor core.Identity, sess Session) {
	if svc.mailSvc == nil || actor.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: actor.Name, Address: actor.Email}},
		Subject: "Aula agendada: " + sess.GroupName,
		TextContent: "Sua aula foi agendada.\n\nSala: " + sess.RoomName +
			"\nSenha: " + sess.RoomPassword +
			"\nLink: " + JoinURL(svc.conf.MeetBaseURL, sess.RoomName, sess.RoomPassword) + "\n",
	})
}
