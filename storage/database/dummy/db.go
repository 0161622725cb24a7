// Package dummydb provides in-memory repositories, substituting the real
// store in tests and local development. Tables keep insertion order so that
// equal-timestamp lookups resolve the way the document store would.
package dummydb

import (
	"sync"

	"github.com/tadeufagundes/go-geo-meet/core/attendance"
	"github.com/tadeufagundes/go-geo-meet/core/feedback"
	"github.com/tadeufagundes/go-geo-meet/core/session"
)

type (
	DB struct {
		session    *sessionTable
		attendance *attendanceTable
		feedback   *feedbackTable
	}

	sessionTable struct {
		sync.RWMutex
		rows []*session.Session
	}

	attendanceTable struct {
		sync.RWMutex
		rows []*attendance.Record
	}

	feedbackTable struct {
		sync.RWMutex
		rows []*feedback.Flag
	}
)

func Open() *DB {
	return &DB{
		session:    &sessionTable{},
		attendance: &attendanceTable{},
		feedback:   &feedbackTable{},
	}
}
