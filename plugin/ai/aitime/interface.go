// Package aitime resolves natural language time expressions for the scheduling tools.
package aitime

import (
	"context"
	"errors"
	"time"
)

// ErrUnrecognizedTime is returned for input that holds no date, clock time or
// relative phrase.
var ErrUnrecognizedTime = errors.New("unrecognized time expression")

// TimeService defines the time parsing service interface.
// Consumers: the create and reschedule tools.
type TimeService interface {
	// ParseNaturalTime resolves a phrase such as "3 ngày sau" or "next week"
	// against reference. Unrecognised input yields a range starting at
	// reference together with ErrUnrecognizedTime.
	ParseNaturalTime(ctx context.Context, input string, reference time.Time) (TimeRange, error)
}

// Rules is a TimeService backed by the rule-based resolver alone.
var Rules TimeService = rules{}

type rules struct{}

func (rules) ParseNaturalTime(_ context.Context, input string, reference time.Time) (TimeRange, error) {
	tr, ok := ResolvePhrase(input, reference)
	if !ok {
		return tr, ErrUnrecognizedTime
	}
	return tr, nil
}

// TimeRange represents a time range.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultDuration is the length of every resolved range.
const DefaultDuration = time.Hour
