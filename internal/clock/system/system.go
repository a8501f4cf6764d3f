// Package system stamps collection batches with wall-clock time.
package system

import "time"

// Clock reads the wall clock in UTC, truncated to the microsecond precision a
// Postgres timestamptz keeps, so ledger rows read back equal to what was
// written.
type Clock struct{}

// New returns a Clock.
func New() *Clock { return &Clock{} }

// Now implements collector.Clock.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
