package daterange

import (
	"strings"
	"time"
)

// Range is an inclusive [Start, End] window normalized to local-day
// boundaries, except where a rolling window anchors End to now.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r Range) Days() float64 {
	return r.End.Sub(r.Start).Hours() / 24
}

// WeekMode picks between the two historical meanings of the "week" period.
type WeekMode string

const (
	// WeekToDate runs Monday of the current week through now.
	WeekToDate WeekMode = "to_date"
	// WeekComplete runs Monday through Sunday end-of-day of the current week.
	WeekComplete WeekMode = "complete"
)

func ParseWeekMode(value string) WeekMode {
	if strings.EqualFold(strings.TrimSpace(value), string(WeekComplete)) {
		return WeekComplete
	}
	return WeekToDate
}

// Resolve maps a named period to a concrete range. Unknown period names fall
// back to today. Custom bounds are supplied by the caller; "custom" here only
// provides the trailing 30-day default used when they are absent.
func Resolve(period string, now time.Time, mode WeekMode) Range {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return dayRange(now)
	case "yesterday":
		return dayRange(now.AddDate(0, 0, -1))
	case "week":
		monday := startOfDay(mondayOf(now))
		if mode == WeekComplete {
			return Range{Start: monday, End: endOfDay(monday.AddDate(0, 0, 6))}
		}
		return Range{Start: monday, End: now}
	case "lastweek":
		monday := startOfDay(mondayOf(now).AddDate(0, 0, -7))
		return Range{Start: monday, End: endOfDay(monday.AddDate(0, 0, 6))}
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{Start: first, End: now}
	case "lastmonth":
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		first := firstOfThis.AddDate(0, -1, 0)
		return Range{Start: first, End: endOfDay(firstOfThis.AddDate(0, 0, -1))}
	case "quarter":
		// Rolling 90 days, not a calendar quarter.
		return Range{Start: startOfDay(now.AddDate(0, 0, -90)), End: now}
	case "year":
		// Rolling 365 days, not a calendar year.
		return Range{Start: startOfDay(now.AddDate(0, 0, -365)), End: now}
	case "custom":
		return Range{Start: startOfDay(now.AddDate(0, 0, -30)), End: now}
	default:
		return dayRange(now)
	}
}

// Custom builds a range from explicit bounds, normalized to day boundaries.
// Inverted bounds are swapped rather than rejected.
func Custom(start, end time.Time) Range {
	if end.Before(start) {
		start, end = end, start
	}
	return Range{Start: startOfDay(start), End: endOfDay(end)}
}

func dayRange(t time.Time) Range {
	return Range{Start: startOfDay(t), End: endOfDay(t)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// mondayOf returns the Monday of the week containing t.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
