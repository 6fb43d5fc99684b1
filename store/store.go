package store

import (
	"context"
	"time"

	"github.com/hrygo/skedule/internal/profile"
)

// defaultTimeout bounds store calls when the profile does not set one.
const defaultTimeout = 5 * time.Second

// Store provides database access to tasks and schedules.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// timeout bounds every store call.
	timeout     time.Duration
	matchPolicy MatchPolicy
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	timeout := profile.StoreTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		driver:      driver,
		profile:     profile,
		timeout:     timeout,
		matchPolicy: ParseMatchPolicy(profile.TitleMatch),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// MatchPolicy returns the title match policy applied when a request leaves it unset.
func (s *Store) MatchPolicy() MatchPolicy {
	return s.matchPolicy
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
