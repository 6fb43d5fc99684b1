package aitime

import (
	"context"
	"time"
)

// Service implements TimeService with rule-based resolution.
//
// Stored timestamps carry no zone. Service reads the wall clock of its
// configured timezone and represents it as a UTC time.Time, which is the form
// every other package compares and persists.
type Service struct {
	timezone *time.Location
	clock    func() time.Time
}

// NewService creates a time service reading the wall clock of defaultTimezone.
// An unknown timezone falls back to the local one.
func NewService(defaultTimezone string) *Service {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.Local
	}
	return &Service{timezone: loc, clock: time.Now}
}

// WithClock returns a copy of s that reads time from clock. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	return &Service{timezone: s.timezone, clock: clock}
}

// Now returns the current wall clock as a zone-less timestamp.
func (s *Service) Now() time.Time {
	return Naive(s.clock().In(s.timezone))
}

// ParseNaturalTime resolves input against reference.
func (s *Service) ParseNaturalTime(ctx context.Context, input string, reference time.Time) (TimeRange, error) {
	return Rules.ParseNaturalTime(ctx, input, reference)
}

// Naive drops the zone of t, keeping its wall clock, and truncates to seconds.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
