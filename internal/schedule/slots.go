package schedule

import "time"

const (
	// DefaultInterval is the slot step offered to customers when a salon has
	// not configured its own.
	DefaultInterval = 60 * time.Minute

	// MinInterval is the floor applied to configured intervals. Anything
	// smaller (including zero and negatives) is clamped so slot generation
	// can never loop without advancing.
	MinInterval = 5 * time.Minute
)

// Slots returns the ordered bookable start-time labels ("HH:MM") for the given
// calendar date. A closed or absent day yields nil. Labels start at the day's
// open instant and step by interval while strictly before close; the close
// boundary itself is never offered.
//
// The result is fully materialized and deterministic: identical inputs always
// produce the identical sequence.
func Slots(date time.Time, hours WorkingHours, interval time.Duration) []string {
	if interval < MinInterval {
		interval = MinInterval
	}

	open, close, ok := hours.Window(date)
	if !ok {
		return nil
	}

	var labels []string
	for t := open; t.Before(close); t = t.Add(interval) {
		labels = append(labels, t.Format("15:04"))
	}
	return labels
}
