package aitime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// unit is a calendar step understood by the quantified pattern.
type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

var (
	// <integer> <unit> <direction>, e.g. "3 ngày sau", "2 weeks ago", "1 tháng nữa".
	quantifiedPattern = regexp.MustCompile(
		`(\d+)\s*(ngày|tuần|tháng|năm|giờ|tiếng|phút|days?|weeks?|months?|years?|hours?|minutes?|mins?)\s*` +
			`(sau|tới|nữa|trước|from now|after|later|next|before|ago|earlier)`)

	// Clock time patterns, tried in order.
	colonClockPattern = regexp.MustCompile(`(?:^|[^\d])(\d{1,2}):(\d{2})(?:[^\d]|$)`)
	hourClockPattern  = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})h(\d{2})?(?:[^a-z\d]|$)`)
	gioClockPattern   = regexp.MustCompile(`(\d{1,2})\s*giờ(?:\s*(\d{1,2})(?:\s*phút)?|\s*(rưỡi))?`)
	ampmClockPattern  = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)(?:[^a-z]|$)`)
)

var unitWords = map[string]unit{
	"phút": unitMinute, "minute": unitMinute, "minutes": unitMinute, "min": unitMinute, "mins": unitMinute,
	"giờ": unitHour, "tiếng": unitHour, "hour": unitHour, "hours": unitHour,
	"ngày": unitDay, "day": unitDay, "days": unitDay,
	"tuần": unitWeek, "week": unitWeek, "weeks": unitWeek,
	"tháng": unitMonth, "month": unitMonth, "months": unitMonth,
	"năm": unitYear, "year": unitYear, "years": unitYear,
}

// maxQuantity bounds the amount of a quantified phrase. Larger amounts are
// treated as unrecognised.
const maxQuantity = 100000

var backwardWords = map[string]bool{
	"trước": true, "before": true, "ago": true, "earlier": true,
}

// fallback is a fixed phrase and the shift it applies to the anchor.
type fallback struct {
	phrase string
	shift  func(time.Time) time.Time
}

func days(n int) func(time.Time) time.Time {
	return func(t time.Time) time.Time { return AddDays(t, n) }
}

func months(n int) func(time.Time) time.Time {
	return func(t time.Time) time.Time { return AddMonths(t, n) }
}

func years(n int) func(time.Time) time.Time {
	return func(t time.Time) time.Time { return AddYears(t, n) }
}

// fallbacks is scanned in order and only the first phrase found applies.
// Phrases that contain a shorter entry must come before it.
var fallbacks = []fallback{
	{"day after tomorrow", days(2)},
	{"day before yesterday", days(-2)},
	{"ngày kia", days(2)},
	{"ngày mốt", days(2)},
	{"hôm kia", days(-2)},
	{"tomorrow", days(1)},
	{"ngày mai", days(1)},
	{"sáng mai", days(1)},
	{"trưa mai", days(1)},
	{"chiều mai", days(1)},
	{"tối mai", days(1)},
	{"đêm mai", days(1)},
	{"yesterday", days(-1)},
	{"hôm qua", days(-1)},
	{"next week", days(7)},
	{"tuần sau", days(7)},
	{"tuần tới", days(7)},
	{"last week", days(-7)},
	{"tuần trước", days(-7)},
	{"next month", months(1)},
	{"tháng sau", months(1)},
	{"tháng tới", months(1)},
	{"last month", months(-1)},
	{"tháng trước", months(-1)},
	{"next year", years(1)},
	{"năm sau", years(1)},
	{"năm tới", years(1)},
	{"last year", years(-1)},
	{"năm ngoái", years(-1)},
	{"năm trước", years(-1)},
	{"today", days(0)},
	{"hôm nay", days(0)},
}

// absoluteLayouts carry both a date and a clock time.
var absoluteLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"15:04 02/01/2006",
	"15:04 ngày 02/01/2006",
}

// dateLayouts carry only a date.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
}

// Resolve converts a natural language phrase into an absolute range anchored on anchor.
//
// Resolution order: absolute timestamp, quantified relative pattern, fixed phrase
// fallback, then anchor pass-through. A clock time in the phrase ("15:30", "9h",
// "3 giờ chiều", "3pm") replaces the time of day of a relative result.
// The range always lasts DefaultDuration. Resolve never fails.
func Resolve(phrase string, anchor time.Time) TimeRange {
	tr, _ := ResolvePhrase(phrase, anchor)
	return tr
}

// ResolvePhrase is Resolve that also reports whether the phrase contained
// anything it understood. When ok is false the range starts at anchor.
func ResolvePhrase(phrase string, anchor time.Time) (tr TimeRange, ok bool) {
	start, ok := resolveStart(phrase, anchor)
	return TimeRange{Start: start, End: start.Add(DefaultDuration)}, ok
}

func resolveStart(phrase string, anchor time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(norm.NFC.String(phrase))
	if raw == "" {
		return anchor, false
	}
	if t, ok := ParseAbsolute(raw, anchor.Location()); ok {
		return t, true
	}
	if d, ok := ParseDate(raw, anchor.Location()); ok {
		return time.Date(d.Year(), d.Month(), d.Day(), anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location()), true
	}

	text := strings.ToLower(raw)
	start := anchor
	rest := text
	recognized := false
	if loc := findQuantified(text); loc != nil {
		if shifted, ok := applyQuantified(anchor, text[loc[2]:loc[3]], text[loc[4]:loc[5]], text[loc[6]:loc[7]]); ok {
			start = shifted
			recognized = true
		}
		rest = text[:loc[0]] + " " + text[loc[1]:]
	} else {
		for _, f := range fallbacks {
			if strings.Contains(text, f.phrase) {
				start = f.shift(anchor)
				recognized = true
				break
			}
		}
	}

	if hour, minute, ok := parseClock(rest); ok {
		start = time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, start.Location())
		recognized = true
	}
	return start, recognized
}

// findQuantified returns the submatch indexes of the first quantified phrase
// whose number is a quantity. In "tháng 3 năm sau" or "ngày 5 tháng sau" the
// number names a month or a day, so that match is skipped.
func findQuantified(text string) []int {
	for _, loc := range quantifiedPattern.FindAllStringSubmatchIndex(text, -1) {
		before := strings.TrimSpace(text[:loc[0]])
		if strings.HasSuffix(before, "tháng") || strings.HasSuffix(before, "ngày") {
			continue
		}
		return loc
	}
	return nil
}

func applyQuantified(anchor time.Time, amount, unitWord, direction string) (time.Time, bool) {
	n, err := strconv.Atoi(amount)
	if err != nil || n > maxQuantity {
		return anchor, false
	}
	if backwardWords[direction] {
		n = -n
	}
	switch unitWords[unitWord] {
	case unitMinute:
		return anchor.Add(time.Duration(n) * time.Minute), true
	case unitHour:
		return anchor.Add(time.Duration(n) * time.Hour), true
	case unitDay:
		return AddDays(anchor, n), true
	case unitWeek:
		return AddDays(anchor, 7*n), true
	case unitMonth:
		return AddMonths(anchor, n), true
	case unitYear:
		return AddYears(anchor, n), true
	}
	return anchor, false
}

// parseClock extracts a time of day from lower-cased text.
func parseClock(text string) (hour, minute int, ok bool) {
	if m := ampmClockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour > 12 {
			return 0, 0, false
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		} else if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return hour, minute, true
	} else if m := colonClockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
	} else if m := gioClockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		} else if m[3] != "" {
			minute = 30
		}
	} else if m := hourClockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
	} else {
		return 0, 0, false
	}

	hour = applyPeriod(text, hour)
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// applyPeriod shifts a 12-hour clock reading by the Vietnamese period of day.
func applyPeriod(text string, hour int) int {
	switch {
	case strings.Contains(text, "chiều"), strings.Contains(text, "tối"):
		if hour < 12 {
			return hour + 12
		}
	case strings.Contains(text, "trưa"):
		if hour < 6 {
			return hour + 12
		}
	case strings.Contains(text, "đêm"):
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// ParseAbsolute parses a full timestamp with a date and a clock time.
// Zoned inputs such as RFC3339 keep their wall clock and are placed in loc,
// since stored timestamps carry no zone.
func ParseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a calendar date without a time of day.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
