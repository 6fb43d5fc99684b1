package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/skedule/store"
)

const taskScheduleColumns = `task.id, task.uid, task.owner, task.title, task.completed, task.created_ts,
	schedule.id, schedule.start_time, schedule.end_time`

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskSchedule(row scanner) (*store.TaskSchedule, error) {
	var ts store.TaskSchedule
	var startTime, endTime string
	if err := row.Scan(
		&ts.Task.ID,
		&ts.Task.UID,
		&ts.Task.Owner,
		&ts.Task.Title,
		&ts.Task.Completed,
		&ts.Task.CreatedTs,
		&ts.Schedule.ID,
		&startTime,
		&endTime,
	); err != nil {
		return nil, err
	}
	var err error
	if ts.Schedule.StartTime, err = store.ParseTime(startTime); err != nil {
		return nil, err
	}
	if ts.Schedule.EndTime, err = store.ParseTime(endTime); err != nil {
		return nil, err
	}
	ts.Schedule.Owner = ts.Task.Owner
	ts.Schedule.TaskID = ts.Task.ID
	return &ts, nil
}

func (d *DB) CreateTaskSchedule(ctx context.Context, create *store.CreateTaskSchedule) (*store.TaskSchedule, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ts := &store.TaskSchedule{
		Task: store.Task{
			UID:       create.UID,
			Owner:     create.Owner,
			Title:     create.Title,
			CreatedTs: time.Now().Unix(),
		},
		Schedule: store.Schedule{
			Owner:     create.Owner,
			StartTime: store.Naive(create.StartTime),
			EndTime:   store.Naive(create.EndTime),
		},
	}

	fields := []string{"uid", "owner", "title", "completed", "created_ts"}
	args := []any{ts.Task.UID, ts.Task.Owner, ts.Task.Title, false, ts.Task.CreatedTs}
	stmt := `INSERT INTO task (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&ts.Task.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(store.ErrPersistence, "task insert returned no id")
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ts.Schedule.TaskID = ts.Task.ID
	fields = []string{"owner", "task_id", "start_time", "end_time"}
	args = []any{ts.Schedule.Owner, ts.Schedule.TaskID, store.FormatTime(ts.Schedule.StartTime), store.FormatTime(ts.Schedule.EndTime)}
	stmt = `INSERT INTO schedule (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&ts.Schedule.ID); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task: %w", err)
	}
	return ts, nil
}

func (d *DB) DeleteTasks(ctx context.Context, delete *store.DeleteTask) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cond, arg := titleCondition(delete.Match, delete.Title, 2)
	result, err := tx.ExecContext(ctx, `DELETE FROM task WHERE task.owner = `+placeholder(1)+` AND `+cond, delete.Owner, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tasks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return affected, nil
}

func (d *DB) ListTaskSchedules(ctx context.Context, find *store.FindTaskSchedule) ([]*store.TaskSchedule, error) {
	where, args := []string{"schedule.owner = " + placeholder(1)}, []any{find.Owner}
	if !find.StartDate.IsZero() {
		where, args = append(where, "date(schedule.start_time) >= "+placeholder(len(args)+1)), append(args, find.StartDate.Format(store.DateLayout))
	}
	if !find.EndDate.IsZero() {
		where, args = append(where, "date(schedule.start_time) <= "+placeholder(len(args)+1)), append(args, find.EndDate.Format(store.DateLayout))
	}

	query := `SELECT ` + taskScheduleColumns + `
		FROM schedule
		JOIN task ON task.id = schedule.task_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY schedule.start_time ASC, schedule.id ASC
		LIMIT ` + fmt.Sprintf("%d", find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	list := make([]*store.TaskSchedule, 0)
	for rows.Next() {
		ts, err := scanTaskSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		list = append(list, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) RescheduleTask(ctx context.Context, reschedule *store.RescheduleTask) (*store.TaskSchedule, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cond, arg := titleCondition(reschedule.Match, reschedule.Title, 2)
	query := `SELECT ` + taskScheduleColumns + `
		FROM schedule
		JOIN task ON task.id = schedule.task_id
		WHERE task.owner = ` + placeholder(1) + ` AND ` + cond + `
		ORDER BY task.id DESC, schedule.id DESC
		LIMIT 1`
	ts, err := scanTaskSchedule(tx.QueryRowContext(ctx, query, reschedule.Owner, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task to reschedule: %w", err)
	}

	start, end := reschedule.Resolve(ts.Schedule.StartTime)
	ts.Schedule.StartTime, ts.Schedule.EndTime = store.Naive(start), store.Naive(end)
	stmt := `UPDATE schedule SET start_time = ` + placeholder(1) + `, end_time = ` + placeholder(2) + ` WHERE id = ` + placeholder(3)
	if _, err := tx.ExecContext(ctx, stmt, store.FormatTime(ts.Schedule.StartTime), store.FormatTime(ts.Schedule.EndTime), ts.Schedule.ID); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return ts, nil
}

func (d *DB) CompleteTasks(ctx context.Context, complete *store.CompleteTask) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cond, arg := titleCondition(complete.Match, complete.Title, 2)
	result, err := tx.ExecContext(ctx, `UPDATE task SET completed = 1 WHERE task.owner = `+placeholder(1)+` AND `+cond, complete.Owner, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to complete tasks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit completion: %w", err)
	}
	return affected, nil
}

func (d *DB) SummarizeTasks(ctx context.Context, owner string, now time.Time) (*store.Summary, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &store.Summary{Upcoming: make([]*store.TaskSchedule, 0, store.MaxUpcoming)}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM task WHERE owner = `+placeholder(1), owner,
	).Scan(&summary.Total, &summary.Completed); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskScheduleColumns + `
		FROM schedule
		JOIN task ON task.id = schedule.task_id
		WHERE task.owner = ` + placeholder(1) + ` AND task.completed = 0 AND schedule.start_time > ` + placeholder(2) + `
		ORDER BY schedule.start_time ASC, schedule.id ASC
		LIMIT ` + fmt.Sprintf("%d", store.MaxUpcoming)
	rows, err := tx.QueryContext(ctx, query, owner, store.FormatTime(store.Naive(now)))
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		ts, err := scanTaskSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upcoming task: %w", err)
		}
		summary.Upcoming = append(summary.Upcoming, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, tx.Commit()
}
