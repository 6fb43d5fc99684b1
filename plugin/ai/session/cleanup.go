package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultIdleTTL is how long a session may stay untouched before eviction.
	DefaultIdleTTL = time.Hour
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 10 * time.Minute
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	IdleTTL         time.Duration // Sessions idle longer than this are evicted (default: 1h)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 10m)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		IdleTTL:         DefaultIdleTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// SessionCleanupJob periodically evicts idle sessions.
type SessionCleanupJob struct {
	store  Store
	config CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionCleanupJob creates a new cleanup job.
func NewSessionCleanupJob(store Store, config CleanupConfig) *SessionCleanupJob {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultIdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = min(DefaultCleanupInterval, config.IdleTTL)
	}

	return &SessionCleanupJob{
		store:  store,
		config: config,
	}
}

// Start begins the periodic cleanup job.
// This method is non-blocking and starts the cleanup in a goroutine.
func (j *SessionCleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	slog.Info("session cleanup job started",
		"idle_ttl", j.config.IdleTTL,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job and waits for the loop to exit.
func (j *SessionCleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	j.running = false
	done := j.done
	j.mu.Unlock()

	<-done
	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *SessionCleanupJob) RunOnce() int {
	return j.store.EvictIdle(j.config.IdleTTL)
}

func (j *SessionCleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if evicted := j.RunOnce(); evicted > 0 {
				slog.Info("idle sessions evicted", "evicted", evicted, "remaining", j.store.Len())
			}
		}
	}
}

// IsRunning returns whether the cleanup job is currently running.
func (j *SessionCleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
