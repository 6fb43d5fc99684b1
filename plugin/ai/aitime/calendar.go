package aitime

import "time"

// maxClampedDay is the highest day-of-month kept by AddMonths.
const maxClampedDay = 28

// AddMonths shifts t by n calendar months.
//
// The day of month is clamped to 28 so the result is valid in every month.
// Anchors on the 29th, 30th or 31st therefore move to the 28th even when the
// target month is long enough.
func AddMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	day := min(t.Day(), maxClampedDay)
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears shifts t by n years. Feb 29 falls back to Feb 28 when the target
// year is not a leap year; every other date keeps its month and day.
func AddYears(t time.Time, n int) time.Time {
	year := t.Year() + n
	day := t.Day()
	if t.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddDays shifts t by n days of fixed calendar length.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
