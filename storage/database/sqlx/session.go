package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

type sessionRow struct {
	ID           string    `db:"id"`
	GroupID      string    `db:"group_id"`
	GroupName    string    `db:"group_name"`
	TeacherID    string    `db:"teacher_id"`
	TeacherName  string    `db:"teacher_name"`
	RoomName     string    `db:"room_name"`
	RoomPassword string    `db:"room_password"`
	Status       string    `db:"status"`
	ScheduledAt  null.Time `db:"scheduled_at"`
	StartedAt    null.Time `db:"started_at"`
	EndedAt      null.Time `db:"ended_at"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
}

func toSessionRow(sess session.Session) sessionRow {
	return sessionRow{
		ID:           sess.ID,
		GroupID:      sess.GroupID,
		GroupName:    sess.GroupName,
		TeacherID:    sess.TeacherID,
		TeacherName:  sess.TeacherName,
		RoomName:     sess.RoomName,
		RoomPassword: sess.RoomPassword,
		Status:       sess.Status,
		ScheduledAt:  null.NewTime(sess.ScheduledAt.UTC(), !sess.ScheduledAt.IsZero()),
		StartedAt:    null.NewTime(sess.StartedAt.UTC(), !sess.StartedAt.IsZero()),
		EndedAt:      null.NewTime(sess.EndedAt.UTC(), !sess.EndedAt.IsZero()),
		CreatedAt:    null.NewTime(sess.CreatedAt.UTC(), !sess.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(sess.UpdatedAt.UTC(), !sess.UpdatedAt.IsZero()),
	}
}

func (row sessionRow) toSession() session.Session {
	return session.Session{
		ID:           row.ID,
		GroupID:      row.GroupID,
		GroupName:    row.GroupName,
		TeacherID:    row.TeacherID,
		TeacherName:  row.TeacherName,
		RoomName:     row.RoomName,
		RoomPassword: row.RoomPassword,
		Status:       row.Status,
		ScheduledAt:  row.ScheduledAt.Time,
		StartedAt:    row.StartedAt.Time,
		EndedAt:      row.EndedAt.Time,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	sess.ID = uuid.New().String()
	row := toSessionRow(sess)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class_session (
			id, group_id, group_name, teacher_id, teacher_name, room_name,
			room_password, status, scheduled_at, started_at, ended_at,
			created_at, updated_at
		) VALUES (
			:id, :group_id, :group_name, :teacher_id, :teacher_name, :room_name,
			:room_password, :status, :scheduled_at, :started_at, :ended_at,
			:created_at, :updated_at
		)`, row)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return row.toSession(), nil
}

func (repo sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}

	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM class_session WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return row.toSession(), nil
}

func (repo sessionRepository) FilterSessions(
	ctx context.Context,
	filter session.QueryFilter,
	ordering core.DBOrdering,
	limit int,
) ([]session.Session, error) {
	query := `SELECT * FROM class_session WHERE 1 = 1`
	args := make([]interface{}, 0, 3)
	if filter.TeacherID != "" {
		query += ` AND teacher_id = ?`
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY ` + ordering.String()
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	query = repo.db.Rebind(query)

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering sessions")
	}

	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toSession())
	}
	return sessions, nil
}

func (repo sessionRepository) UpdateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	row := toSessionRow(sess)

	// Only the mutable fields; identity, room and teacher are immutable.
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE class_session SET
			status     = :status,
			started_at = :started_at,
			ended_at   = :ended_at,
			updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "updating session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return row.toSession(), nil
}
