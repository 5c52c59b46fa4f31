package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultOpen  = "09:00"
	DefaultClose = "18:00"
)

// DaySchedule is the canonical, already-normalized shape of one weekday's window.
// From and To are wall-clock "HH:MM" strings with From < To.
type DaySchedule struct {
	Open bool   `json:"isOpen"`
	From string `json:"open"`
	To   string `json:"close"`
}

// WorkingHours maps weekday keys to their schedule. A missing key means closed.
type WorkingHours map[Weekday]DaySchedule

// rawDay accepts both stored shapes: the current one carries isOpen, the legacy
// one carries closed. When closed is present it wins: the day is open iff the
// value is explicitly false.
type rawDay struct {
	IsOpen *bool   `json:"isOpen"`
	Closed *bool   `json:"closed"`
	Open   *string `json:"open"`
	Close  *string `json:"close"`
}

// Parse normalizes a stored working-hours JSON document into the canonical
// form. Unknown weekday keys are dropped. Days whose open/close strings do not
// parse as HH:MM are treated as closed rather than failing: a broken config
// must degrade to "no slots", never to an error on the booking path.
func Parse(data []byte) (WorkingHours, error) {
	if len(data) == 0 {
		return WorkingHours{}, nil
	}

	var raw map[string]rawDay
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse working hours: %w", err)
	}

	hours := make(WorkingHours, len(raw))
	for key, day := range raw {
		wd := Weekday(key)
		if !validWeekday(wd) {
			continue
		}

		open := false
		switch {
		case day.Closed != nil:
			open = !*day.Closed
		case day.IsOpen != nil:
			open = *day.IsOpen
		}

		from := DefaultOpen
		if day.Open != nil && *day.Open != "" {
			from = *day.Open
		}
		to := DefaultClose
		if day.Close != nil && *day.Close != "" {
			to = *day.Close
		}

		if _, err := minuteOfDay(from); err != nil {
			open = false
		}
		if _, err := minuteOfDay(to); err != nil {
			open = false
		}

		hours[wd] = DaySchedule{Open: open, From: from, To: to}
	}

	return hours, nil
}

// Marshal serializes the canonical form for storage.
func (h WorkingHours) Marshal() ([]byte, error) {
	out := make(map[string]DaySchedule, len(h))
	for key, day := range h {
		out[string(key)] = day
	}
	return json.Marshal(out)
}

// Window resolves the open and close instants of the given calendar date.
// ok is false when the day is closed, absent, or its window is inverted.
func (h WorkingHours) Window(date time.Time) (open, close time.Time, ok bool) {
	day, found := h[KeyFor(date)]
	if !found || !day.Open {
		return time.Time{}, time.Time{}, false
	}

	fromMin, err := minuteOfDay(day.From)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	toMin, err := minuteOfDay(day.To)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if fromMin >= toMin {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open = midnight.Add(time.Duration(fromMin) * time.Minute)
	close = midnight.Add(time.Duration(toMin) * time.Minute)
	return open, close, true
}

// Contains reports whether t falls inside the day's half-open window
// [open, close). The close instant itself is outside.
func (h WorkingHours) Contains(t time.Time) bool {
	open, close, ok := h.Window(t)
	if !ok {
		return false
	}
	return !t.Before(open) && t.Before(close)
}

func validWeekday(wd Weekday) bool {
	for _, key := range weekdayKeys {
		if key == wd {
			return true
		}
	}
	return false
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
