package dummydb

import (
	"context"

	"github.com/tadeufagundes/go-geo-meet/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) *feedbackRepository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) UpsertFlag(_ context.Context, flag feedback.Flag) (feedback.Flag, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, row := range repo.db.rows {
		if row.SessionID == flag.SessionID && row.ParticipantID == flag.ParticipantID {
			row.ParticipantName = flag.ParticipantName
			row.Confused = flag.Confused
			row.UpdatedAt = flag.UpdatedAt
			return *row, nil
		}
	}
	repo.db.rows = append(repo.db.rows, &flag)
	return flag, nil
}

func (repo *feedbackRepository) FilterFlags(_ context.Context, sessionID string, confusedOnly bool) ([]feedback.Flag, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	flags := make([]feedback.Flag, 0)
	for _, flag := range repo.db.rows {
		if flag.SessionID != sessionID {
			continue
		}
		if confusedOnly && !flag.Confused {
			continue
		}
		flags = append(flags, *flag)
	}
	return flags, nil
}

func (repo *feedbackRepository) DeleteSessionFlags(_ context.Context, sessionID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.rows[:0]
	var deleted int
	for _, flag := range repo.db.rows {
		if flag.SessionID == sessionID {
			deleted++
			continue
		}
		kept = append(kept, flag)
	}
	repo.db.rows = kept
	return deleted, nil
}
