package lh

import (
	"fmt"
	"time"
)

// DisplayLayout renders capture times with second precision, independent of locale.
const DisplayLayout = "2006-01-02 15:04:05"

// The supported window keeps one day of margin inside the calendar on each
// side so that any time zone shift stays representable.
var (
	minWallClock = time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC)
	maxWallClock = time.Date(9999, 12, 30, 23, 59, 59, 0, time.UTC)
)

// Stored instants may sit up to one day outside the wall clock window: a time
// accepted in any zone still lands inside the calendar once read back.
var (
	minInstant = minWallClock.AddDate(0, 0, -1).Unix()
	maxInstant = maxWallClock.AddDate(0, 0, 1).Unix()
)

// wallClock returns t's calendar reading in its own location, re-expressed in UTC.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func inWindow(t time.Time) bool {
	w := wallClock(t)
	return !w.Before(minWallClock) && !w.After(maxWallClock)
}

// FromUnixTime converts unix seconds to a local time. The bounds apply to the
// instant, so the result does not depend on the host time zone.
func FromUnixTime(sec int64) (time.Time, error) {
	if sec < minInstant || sec > maxInstant {
		return time.Time{}, fmt.Errorf("%w: %d", ErrOutOfRange, sec)
	}
	return time.Unix(sec, 0), nil
}

// ToUnixTime converts t to unix seconds, dropping sub-second precision.
// t's wall clock must lie between 0001-01-02 00:00:00 and 9999-12-30 23:59:59.
func ToUnixTime(t time.Time) (int64, error) {
	if !inWindow(t) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t.Format(DisplayLayout))
	}
	return t.Unix(), nil
}
