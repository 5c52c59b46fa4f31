package schedule

import "time"

// Weekday is the fixed key vocabulary used in working-hours configurations.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// weekdayKeys is indexed by time.Weekday (Sunday = 0).
var weekdayKeys = [7]Weekday{
	Sunday,
	Monday,
	Tuesday,
	Wednesday,
	Thursday,
	Friday,
	Saturday,
}

// KeyFor maps a calendar date to its working-hours weekday key.
func KeyFor(t time.Time) Weekday {
	return weekdayKeys[int(t.Weekday())]
}
