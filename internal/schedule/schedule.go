/**
 * @description
 * Pure next-run arithmetic for recurring donation schedules. All calculations
 * are performed in UTC so calendar steps are unambiguous across DST boundaries.
 */
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/ussiitqanteknosolusi/tolong-menolong-sub001/internal/domain"
)

// ErrUnknownFrequency marks a frequency value outside the recognized enum.
// An unrecognized value is a data-integrity fault; callers must skip the item
// rather than fall back to a default interval.
var ErrUnknownFrequency = errors.New("unknown subscription frequency")

// NextRun returns the next execution instant for a subscription of the given
// frequency, computed from the given reference instant. The result is always
// strictly after the reference instant.
//
// Monthly steps are calendar-aware: when the source day-of-month does not
// exist in the target month, the day clamps to the last valid day of that
// month (Jan 31 -> Feb 29 in a leap year, Feb 28 otherwise).
func NextRun(frequency domain.Frequency, from time.Time) (time.Time, error) {
	from = from.UTC()

	switch frequency {
	case domain.FrequencyMinute:
		return from.Add(time.Minute), nil
	case domain.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case domain.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case domain.FrequencyMonthly:
		return addOneMonthClamped(from), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, frequency)
	}
}

// addOneMonthClamped advances by one calendar month without normalization
// overflow. time.AddDate would roll Jan 31 into Mar 2/3; instead the
// day-of-month clamps to the target month's length.
func addOneMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()

	targetMonth := month + 1
	targetYear := year
	if targetMonth > time.December {
		targetMonth = time.January
		targetYear++
	}

	if last := lastDayOfMonth(targetYear, targetMonth); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(targetYear, targetMonth, day, hour, min, sec, t.Nanosecond(), time.UTC)
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
