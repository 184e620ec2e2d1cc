// Package clock abstracts time retrieval so retry arithmetic and cron
// materialization can be tested deterministically.
package clock

import "time"

// Clock yields the current time.
type Clock interface {
	Now() time.Time
}

// RealClock returns the real current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same time. For tests.
type FixedClock struct{ t time.Time }

// NewFixed builds a FixedClock pinned to t.
func NewFixed(t time.Time) FixedClock { return FixedClock{t: t} }

func (f FixedClock) Now() time.Time { return f.t }
