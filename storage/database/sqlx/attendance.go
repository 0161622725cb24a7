package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
)

type attendanceRow struct {
	ID              string    `db:"id"`
	SessionID       string    `db:"session_id"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	JoinedAt        null.Time `db:"joined_at"`
	LeftAt          null.Time `db:"left_at"`
}

func toAttendanceRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:              rec.ID,
		SessionID:       rec.SessionID,
		ParticipantID:   rec.ParticipantID,
		ParticipantName: rec.ParticipantName,
		JoinedAt:        null.NewTime(rec.JoinedAt.UTC(), !rec.JoinedAt.IsZero()),
		LeftAt:          null.NewTime(rec.LeftAt.UTC(), !rec.LeftAt.IsZero()),
	}
}

func (row attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:              row.ID,
		SessionID:       row.SessionID,
		ParticipantID:   row.ParticipantID,
		ParticipantName: row.ParticipantName,
		JoinedAt:        row.JoinedAt.Time,
		LeftAt:          row.LeftAt.Time,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	row := toAttendanceRow(rec)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance_record (
			id, session_id, participant_id, participant_name, joined_at, left_at
		) VALUES (
			:id, :session_id, :participant_id, :participant_name, :joined_at, :left_at
		)`, row)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return row.toRecord(), nil
}

func (repo attendanceRepository) CloseRecord(ctx context.Context, recordID string, leftAt time.Time) error {
	if _, err := uuid.Parse(recordID); err != nil {
		return attendance.ErrNotFound
	}

	// left_at is write-once: closed records are left untouched.
	res, err := repo.db.ExecContext(ctx,
		`UPDATE attendance_record SET left_at = $1 WHERE id = $2 AND left_at IS NULL`,
		leftAt.UTC(), recordID)
	if err != nil {
		return errors.Wrap(err, "closing attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	var exists bool
	err = repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM attendance_record WHERE id = $1)`, recordID)
	if err != nil {
		return errors.Wrap(err, "checking attendance record")
	}
	if !exists {
		return attendance.ErrNotFound
	}
	return nil // already closed
}

func (repo attendanceRepository) GetLatestOpenRecord(ctx context.Context, sessionID, participantID string) (attendance.Record, error) {
	var row attendanceRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM attendance_record
		WHERE session_id = $1 AND participant_id = $2 AND left_at IS NULL
		ORDER BY joined_at DESC
		LIMIT 1`, sessionID, participantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting open attendance record")
	}
	return row.toRecord(), nil
}

func (repo attendanceRepository) FilterRecords(ctx context.Context, sessionID string, ordering core.DBOrdering) ([]attendance.Record, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance_record WHERE session_id = $1 ORDER BY `+ordering.String(),
		sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}

	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo attendanceRepository) CloseOpenRecords(ctx context.Context, sessionID string, leftAt time.Time) (int, error) {
	// single statement; atomic over the matched set
	res, err := repo.db.ExecContext(ctx,
		`UPDATE attendance_record SET left_at = $1 WHERE session_id = $2 AND left_at IS NULL`,
		leftAt.UTC(), sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "closing open attendance records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "closing open attendance records")
	}
	return int(n), nil
}
