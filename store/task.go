package store

import (
	"context"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// TimeLayout is how timestamps are written to the database. Stored timestamps carry no zone.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the date component of TimeLayout.
const DateLayout = "2006-01-02"

// MaxFindResults caps ListTaskSchedules. Rows beyond it are dropped.
const MaxFindResults = 10

// MaxUpcoming is the number of upcoming tasks returned by SummarizeTasks.
const MaxUpcoming = 3

// MatchPolicy selects how a title pattern is compared with task titles.
type MatchPolicy string

const (
	// MatchExact requires the title to equal the pattern.
	MatchExact MatchPolicy = "exact"
	// MatchContains requires the title to contain the pattern, ignoring case and diacritics.
	MatchContains MatchPolicy = "contains"
)

// ParseMatchPolicy returns the policy named s, defaulting to MatchContains.
func ParseMatchPolicy(s string) MatchPolicy {
	if MatchPolicy(strings.ToLower(strings.TrimSpace(s))) == MatchExact {
		return MatchExact
	}
	return MatchContains
}

// Task is a titled to-do or event owned by a caller.
type Task struct {
	ID        int32
	UID       string
	Owner     string
	Title     string
	Completed bool
	CreatedTs int64
}

// Schedule is the time slot attached to a task.
type Schedule struct {
	ID        int32
	Owner     string
	TaskID    int32
	StartTime time.Time
	EndTime   time.Time
}

// TaskSchedule is a task joined with one of its schedules.
type TaskSchedule struct {
	Task     Task
	Schedule Schedule
}

// CreateTaskSchedule is the create request for a task and its schedule.
type CreateTaskSchedule struct {
	// UID is generated when empty.
	UID       string
	Owner     string
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

// DeleteTask deletes every task of Owner whose title matches Title.
type DeleteTask struct {
	Owner string
	Title string
	Match MatchPolicy
}

// CompleteTask marks every task of Owner whose title matches Title as completed.
type CompleteTask struct {
	Owner string
	Title string
	Match MatchPolicy
}

// FindTaskSchedule lists schedules whose start date is within [StartDate, EndDate].
// Only the date component of the bounds is used.
type FindTaskSchedule struct {
	Owner     string
	StartDate time.Time
	EndDate   time.Time
	// Limit defaults to MaxFindResults and never exceeds it.
	Limit int
}

// RescheduleFunc computes a new slot from the current start time.
type RescheduleFunc func(currentStart time.Time) (start, end time.Time)

// RescheduleTask moves the most recently created matching task.
type RescheduleTask struct {
	Owner   string
	Title   string
	Match   MatchPolicy
	Resolve RescheduleFunc
}

// Summary is the progress overview of an owner.
type Summary struct {
	Total     int64
	Completed int64
	// Upcoming holds up to MaxUpcoming unfinished tasks starting after the reference time.
	Upcoming []*TaskSchedule
}

// CreateTaskSchedule inserts a task and its schedule atomically.
func (s *Store) CreateTaskSchedule(ctx context.Context, create *CreateTaskSchedule) (*TaskSchedule, error) {
	if create.Owner == "" || strings.TrimSpace(create.Title) == "" {
		return nil, ErrInvalidArgument
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ts, err := s.driver.CreateTaskSchedule(ctx, create)
	return ts, classify(err)
}

// DeleteTasks removes matching tasks and, through the foreign key, their schedules.
func (s *Store) DeleteTasks(ctx context.Context, delete *DeleteTask) (int64, error) {
	if delete.Owner == "" || strings.TrimSpace(delete.Title) == "" {
		return 0, ErrInvalidArgument
	}
	if delete.Match == "" {
		delete.Match = s.matchPolicy
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.driver.DeleteTasks(ctx, delete)
	return n, classify(err)
}

// ListTaskSchedules returns schedules ordered by start time, capped at MaxFindResults.
func (s *Store) ListTaskSchedules(ctx context.Context, find *FindTaskSchedule) ([]*TaskSchedule, error) {
	if find.Owner == "" {
		return nil, ErrInvalidArgument
	}
	if find.Limit <= 0 || find.Limit > MaxFindResults {
		find.Limit = MaxFindResults
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	list, err := s.driver.ListTaskSchedules(ctx, find)
	return list, classify(err)
}

// RescheduleTask overwrites the slot of the most recently created matching task.
// It returns ErrNotFound, leaving every row untouched, when nothing matches.
func (s *Store) RescheduleTask(ctx context.Context, reschedule *RescheduleTask) (*TaskSchedule, error) {
	if reschedule.Owner == "" || strings.TrimSpace(reschedule.Title) == "" || reschedule.Resolve == nil {
		return nil, ErrInvalidArgument
	}
	if reschedule.Match == "" {
		reschedule.Match = s.matchPolicy
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ts, err := s.driver.RescheduleTask(ctx, reschedule)
	return ts, classify(err)
}

// CompleteTasks marks matching tasks as completed and returns how many matched.
func (s *Store) CompleteTasks(ctx context.Context, complete *CompleteTask) (int64, error) {
	if complete.Owner == "" || strings.TrimSpace(complete.Title) == "" {
		return 0, ErrInvalidArgument
	}
	if complete.Match == "" {
		complete.Match = s.matchPolicy
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.driver.CompleteTasks(ctx, complete)
	return n, classify(err)
}

// SummarizeTasks counts the tasks of owner and lists the next unfinished ones after now.
func (s *Store) SummarizeTasks(ctx context.Context, owner string, now time.Time) (*Summary, error) {
	if owner == "" {
		return nil, ErrInvalidArgument
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	summary, err := s.driver.SummarizeTasks(ctx, owner, now)
	if err != nil {
		return nil, classify(err)
	}
	if summary.Completed > summary.Total {
		summary.Completed = summary.Total
	}
	return summary, nil
}

// FormatTime renders t the way it is stored.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime reads a stored timestamp. Fractional seconds and zone suffixes
// written by other clients are tolerated; the zone is dropped.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05.999999999", time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrPersistence, "invalid timestamp %q", s)
}

// Naive keeps the wall clock of t and drops its zone.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
