package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/skedule/internal/util"
	"github.com/hrygo/skedule/plugin/ai/aitime"
	"github.com/hrygo/skedule/plugin/ai/timeout"
	"github.com/hrygo/skedule/store"
)

// Audit log field length limits.
const (
	maxTitleLengthForLog = 50
	maxInputLengthForLog = timeout.MaxTruncateLength
)

// ScheduleStore is the part of *store.Store the dispatcher needs.
type ScheduleStore interface {
	CreateTaskSchedule(ctx context.Context, create *store.CreateTaskSchedule) (*store.TaskSchedule, error)
	DeleteTasks(ctx context.Context, delete *store.DeleteTask) (int64, error)
	ListTaskSchedules(ctx context.Context, find *store.FindTaskSchedule) ([]*store.TaskSchedule, error)
	RescheduleTask(ctx context.Context, reschedule *store.RescheduleTask) (*store.TaskSchedule, error)
	CompleteTasks(ctx context.Context, complete *store.CompleteTask) (int64, error)
	SummarizeTasks(ctx context.Context, owner string, now time.Time) (*store.Summary, error)
}

// Clock returns the current zone-less wall clock. *aitime.Service implements it.
type Clock interface {
	Now() time.Time
}

// Dispatcher runs catalogue tools for a caller against the store.
type Dispatcher struct {
	store ScheduleStore
	clock Clock
	times aitime.TimeService
}

// NewDispatcher creates a dispatcher. Time phrases are resolved by clock when
// it is also an aitime.TimeService, by the plain rules otherwise.
func NewDispatcher(s ScheduleStore, clock Clock) *Dispatcher {
	times, ok := clock.(aitime.TimeService)
	if !ok {
		times = aitime.Rules
	}
	return &Dispatcher{store: s, clock: clock, times: times}
}

var (
	// numericDate looks like a date the user typed, as opposed to a phrase.
	numericDate = regexp.MustCompile(`^\d[\d/\-. :T]*$`)
	// dateToken is a numeric day/month fragment inside a longer input.
	dateToken = regexp.MustCompile(`\d{1,4}[-/]\d{1,2}`)
)

// Dispatch runs the tool name with a JSON argument object on behalf of owner.
func (d *Dispatcher) Dispatch(ctx context.Context, owner, name, argsJSON string) Result {
	tool, ok := Lookup(name)
	if !ok {
		return unknownTool(name)
	}
	req, err := DecodeJSON(tool, argsJSON)
	if err != nil {
		return invalidArguments(tool, err)
	}
	return d.Run(ctx, owner, req)
}

// RunPositional runs the tool name with one argument per parameter, in the
// order listed by the catalogue.
func (d *Dispatcher) RunPositional(ctx context.Context, owner, name string, args []string) Result {
	tool, ok := Lookup(name)
	if !ok {
		return unknownTool(name)
	}
	req, err := DecodePositional(tool, args)
	if err != nil {
		return invalidArguments(tool, err)
	}
	return d.Run(ctx, owner, req)
}

// Run executes a decoded request. The caller identity is always required.
func (d *Dispatcher) Run(ctx context.Context, owner string, req Request) Result {
	if strings.TrimSpace(owner) == "" {
		return failed(req.Kind(), "❌ Không xác định được người dùng cho yêu cầu này.")
	}
	switch r := req.(type) {
	case CreateRequest:
		return d.create(ctx, owner, r)
	case DeleteRequest:
		return d.delete(ctx, owner, r)
	case FindRequest:
		return d.find(ctx, owner, r)
	case RescheduleRequest:
		return d.reschedule(ctx, owner, r)
	case CompleteRequest:
		return d.complete(ctx, owner, r)
	case SummarizeRequest:
		return d.summarize(ctx, owner)
	}
	return unknownTool(string(req.Kind()))
}

func (d *Dispatcher) create(ctx context.Context, owner string, r CreateRequest) Result {
	start, ok := d.resolveTime(ctx, r.StartTime, d.clock.Now())
	if !ok {
		return rejectArgument(KindCreate, "unrecognized start_time %q", r.StartTime)
	}
	end := start.Add(aitime.DefaultDuration)
	if r.EndTime != "" {
		// A relative end such as "11h" or "2 giờ sau" is read against the start.
		if end, ok = d.resolveTime(ctx, r.EndTime, start); !ok {
			return rejectArgument(KindCreate, "unrecognized end_time %q", r.EndTime)
		}
	}

	created, err := d.store.CreateTaskSchedule(ctx, &store.CreateTaskSchedule{
		Owner:     owner,
		Title:     r.Title,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		logFailure(ctx, KindCreate, owner, r.Title, err)
		return failed(KindCreate, "❌ Lỗi khi tạo lịch: %s", describe(err))
	}
	slog.InfoContext(ctx, "schedule audit: created",
		"owner", owner,
		"task_id", created.Task.ID,
		"title", util.TruncateRunes(created.Task.Title, maxTitleLengthForLog),
		"start_time", store.FormatTime(start),
		"end_time", store.FormatTime(end),
	)
	return success(KindCreate, "✅ Đã lên lịch '%s' lúc %s.", created.Task.Title, start.Format(longLayout))
}

func (d *Dispatcher) delete(ctx context.Context, owner string, r DeleteRequest) Result {
	n, err := d.store.DeleteTasks(ctx, &store.DeleteTask{Owner: owner, Title: r.Title})
	if err != nil {
		logFailure(ctx, KindDelete, owner, r.Title, err)
		return failed(KindDelete, "❌ Lỗi khi xóa: %s", describe(err))
	}
	if n == 0 {
		return notFound(KindDelete, "⚠️ Không tìm thấy lịch trình nào có tên '%s' để xóa.", r.Title)
	}
	slog.InfoContext(ctx, "schedule audit: deleted",
		"owner", owner,
		"title", util.TruncateRunes(r.Title, maxTitleLengthForLog),
		"count", n,
	)
	if n == 1 {
		return success(KindDelete, "🗑️ Đã xóa thành công lịch trình có chứa từ khóa '%s'.", r.Title)
	}
	return success(KindDelete, "🗑️ Đã xóa thành công %d lịch trình có chứa từ khóa '%s'.", n, r.Title)
}

func (d *Dispatcher) find(ctx context.Context, owner string, r FindRequest) Result {
	now := d.clock.Now()
	startDate, okStart := d.resolveDate(r.StartDate, now)
	endDate, okEnd := d.resolveDate(r.EndDate, now)
	if !okStart || !okEnd {
		return failed(KindFind, "❌ Ngày không hợp lệ: '%s' đến '%s'. Vui lòng dùng định dạng YYYY-MM-DD.", r.StartDate, r.EndDate)
	}

	list, err := d.store.ListTaskSchedules(ctx, &store.FindTaskSchedule{
		Owner:     owner,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		logFailure(ctx, KindFind, owner, "", err)
		return failed(KindFind, "❌ Lỗi khi tìm lịch: %s", describe(err))
	}
	if len(list) == 0 {
		return notFound(KindFind, "📭 Bạn không có sự kiện nào từ %s đến %s.", formatDay(startDate), formatDay(endDate))
	}
	return success(KindFind, "%s", formatList(list))
}

func (d *Dispatcher) reschedule(ctx context.Context, owner string, r RescheduleRequest) Result {
	if _, ok := d.resolveTime(ctx, r.NewTime, d.clock.Now()); !ok {
		return rejectArgument(KindReschedule, "unrecognized new_time %q", r.NewTime)
	}
	moved, err := d.store.RescheduleTask(ctx, &store.RescheduleTask{
		Owner: owner,
		Title: r.Title,
		Resolve: func(currentStart time.Time) (time.Time, time.Time) {
			// Recognition does not depend on the reference, so this cannot fail here.
			tr, _ := d.times.ParseNaturalTime(ctx, r.NewTime, currentStart)
			return tr.Start, tr.End
		},
	})
	if errors.Is(err, store.ErrNotFound) {
		return notFound(KindReschedule, "⚠️ Không tìm thấy '%s' để chỉnh sửa.", r.Title)
	}
	if err != nil {
		logFailure(ctx, KindReschedule, owner, r.Title, err)
		return failed(KindReschedule, "❌ Lỗi khi chỉnh sửa: %s", describe(err))
	}
	slog.InfoContext(ctx, "schedule audit: rescheduled",
		"owner", owner,
		"task_id", moved.Task.ID,
		"title", util.TruncateRunes(moved.Task.Title, maxTitleLengthForLog),
		"new_time", util.TruncateRunes(r.NewTime, maxInputLengthForLog),
		"start_time", store.FormatTime(moved.Schedule.StartTime),
	)
	return success(KindReschedule, "✅ Đã dời '%s' sang %s.", moved.Task.Title, moved.Schedule.StartTime.Format(shortLayout))
}

func (d *Dispatcher) complete(ctx context.Context, owner string, r CompleteRequest) Result {
	n, err := d.store.CompleteTasks(ctx, &store.CompleteTask{Owner: owner, Title: r.Title})
	if err != nil {
		logFailure(ctx, KindComplete, owner, r.Title, err)
		return failed(KindComplete, "❌ Lỗi khi đánh dấu hoàn thành: %s", describe(err))
	}
	if n == 0 {
		return notFound(KindComplete, "🤔 Không tìm thấy công việc nào có tên '%s' để đánh dấu hoàn thành.", r.Title)
	}
	slog.InfoContext(ctx, "schedule audit: completed",
		"owner", owner,
		"title", util.TruncateRunes(r.Title, maxTitleLengthForLog),
		"count", n,
	)
	return success(KindComplete, "👍 Rất tốt! Đã đánh dấu '%s' là đã hoàn thành.", r.Title)
}

func (d *Dispatcher) summarize(ctx context.Context, owner string) Result {
	summary, err := d.store.SummarizeTasks(ctx, owner, d.clock.Now())
	if err != nil {
		logFailure(ctx, KindSummarize, owner, "", err)
		if missingCompletedColumn(err) {
			return failed(KindSummarize, "❌ Lỗi: Bảng 'task' cần có cột 'completed' kiểu BOOLEAN để sử dụng chức năng này.")
		}
		return failed(KindSummarize, "❌ Lỗi khi tóm tắt: %s", describe(err))
	}
	return success(KindSummarize, "%s", formatSummary(summary))
}

// resolveTime reads an absolute timestamp or resolves a phrase against anchor.
// It fails for input with nothing recognisable and for numeric dates that do
// not parse, such as "2026-02-30 09:00", rather than booking them today.
func (d *Dispatcher) resolveTime(ctx context.Context, s string, anchor time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, ok := aitime.ParseAbsolute(s, time.UTC); ok {
		return t, true
	}
	if dateToken.MatchString(s) {
		if _, ok := aitime.ParseDate(s, time.UTC); !ok {
			return time.Time{}, false
		}
	}
	tr, err := d.times.ParseNaturalTime(ctx, s, anchor)
	if err != nil {
		return time.Time{}, false
	}
	return tr.Start, true
}

// resolveDate reads a calendar date. Phrases such as "hôm nay" or "tuần sau"
// resolve against now; malformed numeric dates are rejected.
func (*Dispatcher) resolveDate(s string, now time.Time) (time.Time, bool) {
	if t, ok := aitime.ParseDate(s, time.UTC); ok {
		return t, true
	}
	if t, ok := aitime.ParseAbsolute(s, time.UTC); ok {
		return t, true
	}
	if numericDate.MatchString(strings.TrimSpace(s)) {
		return time.Time{}, false
	}
	return aitime.Resolve(s, now).Start, true
}

// describe renders a store error for the user without leaking driver details.
func describe(err error) string {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return "cơ sở dữ liệu tạm thời không phản hồi, vui lòng thử lại sau."
	case errors.Is(err, store.ErrInvalidArgument):
		return "thông tin yêu cầu không hợp lệ."
	default:
		return "không thể lưu thay đổi vào cơ sở dữ liệu."
	}
}

func missingCompletedColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "completed") &&
		(strings.Contains(msg, "no such column") || strings.Contains(msg, "does not exist"))
}

func logFailure(ctx context.Context, kind Kind, owner, title string, err error) {
	slog.ErrorContext(ctx, "schedule tool failed",
		"tool", string(kind),
		"owner", owner,
		"title", util.TruncateRunes(title, maxTitleLengthForLog),
		"error", err,
	)
}

func unknownTool(name string) Result {
	return failed(KindUnknown, "❌ Không có công cụ nào tên '%s'.", util.TruncateRunes(name, maxTitleLengthForLog))
}

func rejectArgument(kind Kind, format string, args ...any) Result {
	tool, _ := Lookup(string(kind))
	return invalidArguments(tool, &ArgumentError{Tool: kind, Reason: fmt.Sprintf(format, args...)})
}

func invalidArguments(tool *Tool, err error) Result {
	var argErr *ArgumentError
	reason := err.Error()
	if errors.As(err, &argErr) {
		reason = argErr.Reason
	}
	slog.Warn("schedule tool rejected arguments", "tool", string(tool.Name), "reason", reason)
	return failed(tool.Name, "❌ Tham số không hợp lệ cho '%s': %s.", tool.Name, reason)
}
