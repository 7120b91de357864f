// Package period converts user-selected timeframe tokens into concrete
// inclusive instant ranges at day granularity.
package period

import (
	"fmt"
	"time"

	"github.com/kaskonter/kaskonter/internal/shared"
)

// Kind identifies a timeframe token.
type Kind string

const (
	Today         Kind = "today"
	ThisWeek      Kind = "this_week"
	ThisMonth     Kind = "this_month"
	SpecificMonth Kind = "month"
	CustomRange   Kind = "custom"
)

// Timeframe is a user-selected reporting window before resolution.
// Year/Month apply to SpecificMonth; Start/End apply to CustomRange.
type Timeframe struct {
	Kind  Kind
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
}

// Range is an inclusive [Start, End] instant pair. Start sits at 00:00:00.000
// and End at 23:59:59.999 of their calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Resolve turns a timeframe into a concrete range relative to the reference
// instant. It is a pure function of its inputs.
func Resolve(tf Timeframe, ref time.Time) (Range, error) {
	if ref.IsZero() {
		ref = time.Now()
	}
	switch tf.Kind {
	case Today:
		return Range{Start: startOfDay(ref), End: endOfDay(ref)}, nil
	case ThisWeek:
		return Range{Start: startOfDay(mostRecentMonday(ref)), End: endOfDay(ref)}, nil
	case ThisMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return Range{Start: first, End: endOfDay(ref)}, nil
	case SpecificMonth:
		if tf.Year == 0 || tf.Month < time.January || tf.Month > time.December {
			return Range{}, fmt.Errorf("%w: month %d-%d", shared.ErrInvalidRange, tf.Year, tf.Month)
		}
		first := time.Date(tf.Year, tf.Month, 1, 0, 0, 0, 0, ref.Location())
		// Day zero of the next month is the last calendar day of this one.
		last := time.Date(tf.Year, tf.Month+1, 0, 0, 0, 0, 0, ref.Location())
		return Range{Start: first, End: endOfDay(last)}, nil
	case CustomRange:
		if tf.Start.IsZero() || tf.End.IsZero() {
			return Range{}, fmt.Errorf("%w: custom range requires both bounds", shared.ErrInvalidRange)
		}
		start := startOfDay(tf.Start)
		end := endOfDay(tf.End)
		if end.Before(start) {
			return Range{}, fmt.Errorf("%w: end %s before start %s", shared.ErrInvalidRange,
				tf.End.Format("2006-01-02"), tf.Start.Format("2006-01-02"))
		}
		return Range{Start: start, End: end}, nil
	default:
		return Range{}, fmt.Errorf("%w: unknown timeframe %q", shared.ErrInvalidRange, tf.Kind)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// mostRecentMonday walks back to the ISO first day of week on or before t.
func mostRecentMonday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
