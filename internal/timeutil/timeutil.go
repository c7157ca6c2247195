package timeutil

import "time"

// Now is the clock used by services and middleware. Tests replace it with a
// fixed clock; production code never overrides it.
var Now = time.Now

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
