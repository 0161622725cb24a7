package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tadeufagundes/go-geo-meet/core"
	"github.com/tadeufagundes/go-geo-meet/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, &rec)
	return rec, nil
}

func (repo *attendanceRepository) CloseRecord(_ context.Context, recordID string, leftAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range repo.db.rows {
		if rec.ID == recordID {
			if rec.LeftAt.IsZero() { // write-once
				rec.LeftAt = leftAt.UTC()
			}
			return nil
		}
	}
	return attendance.ErrNotFound
}

func (repo *attendanceRepository) GetLatestOpenRecord(_ context.Context, sessionID, participantID string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *attendance.Record
	for _, rec := range repo.db.rows {
		if rec.SessionID != sessionID || rec.ParticipantID != participantID || !rec.IsOpen() {
			continue
		}
		// ties kept in insertion order, like the store would return them
		if latest == nil || rec.JoinedAt.After(latest.JoinedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return *latest, nil
}

func (repo *attendanceRepository) FilterRecords(_ context.Context, sessionID string, ordering core.DBOrdering) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.rows {
		if rec.SessionID == sessionID {
			recs = append(recs, *rec)
		}
	}

	if ordering.Field == "joined_at" {
		sort.SliceStable(recs, func(i, j int) bool {
			if ordering.Ascending {
				return recs[i].JoinedAt.Before(recs[j].JoinedAt)
			}
			return recs[i].JoinedAt.After(recs[j].JoinedAt)
		})
	}
	return recs, nil
}

func (repo *attendanceRepository) CloseOpenRecords(_ context.Context, sessionID string, leftAt time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var closed int
	for _, rec := range repo.db.rows {
		if rec.SessionID == sessionID && rec.IsOpen() {
			rec.LeftAt = leftAt.UTC()
			closed++
		}
	}
	return closed, nil
}
