package test

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"

	"github.com/hrygo/skedule/store"
)

// forEachDriver runs fn against SQLite and, when POSTGRES_TEST_DSN is set, PostgreSQL.
func forEachDriver(t *testing.T, fn func(t *testing.T, ts *store.Store)) {
	drivers := []string{"sqlite"}
	if os.Getenv("POSTGRES_TEST_DSN") != "" {
		drivers = append(drivers, "postgres")
	}
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			ts := NewTestingStoreWithDriver(t.Context(), t, driver)
			fn(t, ts)
		})
	}
}

// newOwner returns an owner unique across runs against a shared database.
func newOwner(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
}

func slot(day, hour int) time.Time {
	return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC)
}

func createTask(t *testing.T, ts *store.Store, owner, title string, start time.Time) *store.TaskSchedule {
	t.Helper()
	created, err := ts.CreateTaskSchedule(t.Context(), &store.CreateTaskSchedule{
		Owner:     owner,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	return created
}

func TestTaskScheduleCreateAndFind(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		start := slot(19, 9)
		created := createTask(t, ts, owner, "Standup", start)
		assert.NotZero(t, created.Task.ID)
		assert.NotZero(t, created.Schedule.ID)
		assert.NotEmpty(t, created.Task.UID)
		assert.Equal(t, created.Task.ID, created.Schedule.TaskID)

		list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{
			Owner:     owner,
			StartDate: start,
			EndDate:   start,
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Standup", list[0].Task.Title)
		assert.Equal(t, start, list[0].Schedule.StartTime)
		assert.Equal(t, start.Add(time.Hour), list[0].Schedule.EndTime)
		assert.False(t, list[0].Task.Completed)

		// Other owners never see the row.
		list, err = ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner + "-other", StartDate: start, EndDate: start})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestTaskScheduleDeleteTwice(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		created := createTask(t, ts, owner, "Standup", slot(19, 9))

		n, err := ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "Standup"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "Standup"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		// The schedule went with its task.
		var remaining int
		err = ts.GetDriver().GetDB().QueryRowContext(t.Context(),
			fmt.Sprintf("SELECT COUNT(*) FROM schedule WHERE task_id = %d", created.Task.ID)).Scan(&remaining)
		require.NoError(t, err)
		assert.Zero(t, remaining)
	})
}

func TestTaskScheduleMatchPolicy(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		createTask(t, ts, owner, "Họp nhóm dự án", slot(20, 9))
		createTask(t, ts, owner, "100% hoàn thành", slot(20, 10))

		n, err := ts.CompleteTasks(t.Context(), &store.CompleteTask{Owner: owner, Title: "Họp", Match: store.MatchExact})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n, "exact match must not match a prefix")

		n, err = ts.CompleteTasks(t.Context(), &store.CompleteTask{Owner: owner, Title: "HOP NHOM", Match: store.MatchContains})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "contains ignores case and diacritics")

		n, err = ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "_", Match: store.MatchContains})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n, "LIKE wildcards in the pattern are literal")

		n, err = ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "100%"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "Họp nhóm dự án", Match: store.MatchExact})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestTaskScheduleListOrderAndCap(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		for i := 12; i >= 1; i-- {
			createTask(t, ts, owner, fmt.Sprintf("Task %02d", i), slot(21, 8).Add(time.Duration(i)*time.Minute))
		}
		createTask(t, ts, owner, "Before range", slot(20, 23))
		createTask(t, ts, owner, "After range", slot(23, 0))
		createTask(t, ts, owner, "Range end", slot(22, 23))

		list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: slot(21, 0), EndDate: slot(21, 0)})
		require.NoError(t, err)
		require.Len(t, list, store.MaxFindResults)
		for i, item := range list {
			assert.Equal(t, fmt.Sprintf("Task %02d", i+1), item.Task.Title)
		}

		list, err = ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: slot(22, 0), EndDate: slot(22, 0)})
		require.NoError(t, err)
		require.Len(t, list, 1, "end date is inclusive")
		assert.Equal(t, "Range end", list[0].Task.Title)
	})
}

func TestTaskScheduleReschedule(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		older := createTask(t, ts, owner, "Đi tập gym", slot(20, 18))
		newer := createTask(t, ts, owner, "Đi tập gym tối", slot(21, 18))

		var anchor time.Time
		moved, err := ts.RescheduleTask(t.Context(), &store.RescheduleTask{
			Owner: owner,
			Title: "tap gym",
			Resolve: func(current time.Time) (time.Time, time.Time) {
				anchor = current
				return current.AddDate(0, 0, 3), current.AddDate(0, 0, 3).Add(time.Hour)
			},
		})
		require.NoError(t, err)
		assert.Equal(t, newer.Schedule.StartTime, anchor, "resolved against the existing start")
		assert.Equal(t, newer.Task.ID, moved.Task.ID, "most recently created match wins")
		assert.Equal(t, slot(24, 18), moved.Schedule.StartTime)

		list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: slot(20, 0), EndDate: slot(20, 0)})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, older.Task.ID, list[0].Task.ID)
	})
}

func TestTaskScheduleRescheduleNotFound(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		createTask(t, ts, owner, "Standup", slot(19, 9))

		called := false
		_, err := ts.RescheduleTask(t.Context(), &store.RescheduleTask{
			Owner: owner,
			Title: "Nonexistent",
			Resolve: func(current time.Time) (time.Time, time.Time) {
				called = true
				return current, current
			},
		})
		require.ErrorIs(t, err, store.ErrNotFound)
		assert.False(t, called)

		list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: slot(19, 0), EndDate: slot(19, 0)})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, slot(19, 9), list[0].Schedule.StartTime)
	})
}

func TestTaskScheduleSummarize(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		now := slot(19, 12)
		createTask(t, ts, owner, "Past", slot(18, 9))
		createTask(t, ts, owner, "Done later", slot(25, 9))
		for i := 1; i <= 4; i++ {
			createTask(t, ts, owner, fmt.Sprintf("Next %d", i), slot(19+i, 9))
		}
		_, err := ts.CompleteTasks(t.Context(), &store.CompleteTask{Owner: owner, Title: "Done later"})
		require.NoError(t, err)

		summary, err := ts.SummarizeTasks(t.Context(), owner, now)
		require.NoError(t, err)
		assert.Equal(t, int64(6), summary.Total)
		assert.Equal(t, int64(1), summary.Completed)
		require.Len(t, summary.Upcoming, store.MaxUpcoming)
		for i, item := range summary.Upcoming {
			assert.Equal(t, fmt.Sprintf("Next %d", i+1), item.Task.Title)
		}

		empty, err := ts.SummarizeTasks(t.Context(), owner+"-nobody", now)
		require.NoError(t, err)
		assert.Zero(t, empty.Total)
		assert.Zero(t, empty.Completed)
		assert.Empty(t, empty.Upcoming)
	})
}

func TestTaskScheduleConcurrentCreate(t *testing.T) {
	forEachDriver(t, func(t *testing.T, ts *store.Store) {
		owner := newOwner(t)
		start := slot(22, 14)

		g, ctx := errgroup.WithContext(t.Context())
		for i := 0; i < 8; i++ {
			title := fmt.Sprintf("Overlap %d", i)
			g.Go(func() error {
				_, err := ts.CreateTaskSchedule(ctx, &store.CreateTaskSchedule{
					Owner: owner, Title: title, StartTime: start, EndTime: start.Add(time.Hour),
				})
				return err
			})
		}
		require.NoError(t, g.Wait())

		list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: start, EndDate: start})
		require.NoError(t, err)
		assert.Len(t, list, 8, "double booking is allowed and no create is lost")
	})
}

func TestTaskScheduleErrors(t *testing.T) {
	ts := NewTestingStoreWithDriver(t.Context(), t, "sqlite")

	_, err := ts.CreateTaskSchedule(t.Context(), &store.CreateTaskSchedule{Title: "No owner"})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, err = ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: "u1", Title: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	ctx, cancel := context.WithDeadline(t.Context(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = ts.ListTaskSchedules(ctx, &store.FindTaskSchedule{Owner: "u1"})
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPropertySummaryCompletedNeverExceedsTotal(t *testing.T) {
	ts := NewTestingStoreWithDriver(t.Context(), t, "sqlite")
	titles := []string{"Gym", "Họp", "Báo cáo", "Đọc sách"}
	var run atomic.Int64

	rapid.Check(t, func(rt *rapid.T) {
		owner := fmt.Sprintf("prop-%d", run.Add(1))
		ctx := context.Background()
		steps := rapid.IntRange(1, 15).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			title := rapid.SampledFrom(titles).Draw(rt, "title")
			var err error
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				start := slot(rapid.IntRange(1, 30).Draw(rt, "day"), rapid.IntRange(0, 23).Draw(rt, "hour"))
				_, err = ts.CreateTaskSchedule(ctx, &store.CreateTaskSchedule{Owner: owner, Title: title, StartTime: start, EndTime: start.Add(time.Hour)})
			case 1:
				_, err = ts.CompleteTasks(ctx, &store.CompleteTask{Owner: owner, Title: title})
			case 2:
				_, err = ts.DeleteTasks(ctx, &store.DeleteTask{Owner: owner, Title: title})
			}
			if err != nil {
				rt.Fatalf("step %d failed: %v", i, err)
			}
		}

		summary, err := ts.SummarizeTasks(ctx, owner, slot(15, 0))
		if err != nil {
			rt.Fatalf("SummarizeTasks failed: %v", err)
		}
		if summary.Completed > summary.Total {
			rt.Fatalf("completed %d > total %d", summary.Completed, summary.Total)
		}
		if len(summary.Upcoming) > store.MaxUpcoming {
			rt.Fatalf("%d upcoming tasks", len(summary.Upcoming))
		}
	})
}

func TestPostgresStoreLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ts := NewTestingStoreWithDriver(t.Context(), t, "postgres")
	owner := newOwner(t)

	created := createTask(t, ts, owner, "Họp nhóm", slot(19, 9))
	list, err := ts.ListTaskSchedules(t.Context(), &store.FindTaskSchedule{Owner: owner, StartDate: slot(19, 0), EndDate: slot(19, 0)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.Schedule.StartTime, list[0].Schedule.StartTime)

	n, err := ts.DeleteTasks(t.Context(), &store.DeleteTask{Owner: owner, Title: "hop"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
