package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, &sess)
	return sess, nil
}

func (repo *sessionRepository) GetSessionByID(_ context.Context, id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sess := range repo.db.rows {
		if sess.ID == id {
			return *sess, nil
		}
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) FilterSessions(
	_ context.Context,
	filter session.QueryFilter,
	ordering core.DBOrdering,
	limit int,
) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matched := make([]session.Session, 0)
	for _, sess := range repo.db.rows {
		if filter.TeacherID != "" && sess.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		matched = append(matched, *sess)
	}

	if ordering.Field == "scheduled_at" {
		sort.SliceStable(matched, func(i, j int) bool {
			if ordering.Ascending {
				return matched[i].ScheduledAt.Before(matched[j].ScheduledAt)
			}
			return matched[i].ScheduledAt.After(matched[j].ScheduledAt)
		})
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (repo *sessionRepository) UpdateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, row := range repo.db.rows {
		if row.ID == sess.ID {
			row.Status = sess.Status
			row.StartedAt = sess.StartedAt
			row.EndedAt = sess.EndedAt
			row.UpdatedAt = sess.UpdatedAt
			return *row, nil
		}
	}
	return session.Session{}, session.ErrNotFound
}
