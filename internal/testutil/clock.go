package testutil

import "time"

// FixedClock returns a clock function pinned to the given instant.
// A syncer built with it stamps deterministic effective-from dates and
// always loads the same month on startup.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Date builds a UTC midnight instant for one calendar day, the
// granularity the schedule works in.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
