package store

import (
	"context"
	"database/sql"
	"time"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
// Every mutating method runs in a single transaction and rolls back on any failure.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Task and schedule related methods.
	CreateTaskSchedule(ctx context.Context, create *CreateTaskSchedule) (*TaskSchedule, error)
	DeleteTasks(ctx context.Context, delete *DeleteTask) (int64, error)
	ListTaskSchedules(ctx context.Context, find *FindTaskSchedule) ([]*TaskSchedule, error)
	RescheduleTask(ctx context.Context, reschedule *RescheduleTask) (*TaskSchedule, error)
	CompleteTasks(ctx context.Context, complete *CompleteTask) (int64, error)
	SummarizeTasks(ctx context.Context, owner string, now time.Time) (*Summary, error)
}
