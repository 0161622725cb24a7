package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tadeufagundes/go-geo-meet/core/feedback"
)

type feedbackRow struct {
	SessionID       string    `db:"session_id"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	Confused        bool      `db:"confused"`
	UpdatedAt       null.Time `db:"updated_at"`
}

func toFeedbackRow(flag feedback.Flag) feedbackRow {
	return feedbackRow{
		SessionID:       flag.SessionID,
		ParticipantID:   flag.ParticipantID,
		ParticipantName: flag.ParticipantName,
		Confused:        flag.Confused,
		UpdatedAt:       null.NewTime(flag.UpdatedAt.UTC(), !flag.UpdatedAt.IsZero()),
	}
}

func (row feedbackRow) toFlag() feedback.Flag {
	return feedback.Flag{
		SessionID:       row.SessionID,
		ParticipantID:   row.ParticipantID,
		ParticipantName: row.ParticipantName,
		Confused:        row.Confused,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo feedbackRepository) UpsertFlag(ctx context.Context, flag feedback.Flag) (feedback.Flag, error) {
	row := toFeedbackRow(flag)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO feedback_flag (
			session_id, participant_id, participant_name, confused, updated_at
		) VALUES (
			:session_id, :participant_id, :participant_name, :confused, :updated_at
		)
		ON CONFLICT (session_id, participant_id) DO UPDATE SET
			participant_name = EXCLUDED.participant_name,
			confused         = EXCLUDED.confused,
			updated_at       = EXCLUDED.updated_at`, row)
	if err != nil {
		return feedback.Flag{}, errors.Wrap(err, "upserting feedback flag")
	}
	return row.toFlag(), nil
}

func (repo feedbackRepository) FilterFlags(ctx context.Context, sessionID string, confusedOnly bool) ([]feedback.Flag, error) {
	query := `SELECT * FROM feedback_flag WHERE session_id = $1`
	if confusedOnly {
		query += ` AND confused`
	}
	query += ` ORDER BY updated_at`

	var rows []feedbackRow
	if err := repo.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, errors.Wrap(err, "filtering feedback flags")
	}

	flags := make([]feedback.Flag, 0, len(rows))
	for _, row := range rows {
		flags = append(flags, row.toFlag())
	}
	return flags, nil
}

func (repo feedbackRepository) DeleteSessionFlags(ctx context.Context, sessionID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM feedback_flag WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting feedback flags")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting feedback flags")
	}
	return int(n), nil
}
