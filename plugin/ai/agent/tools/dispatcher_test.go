package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/skedule/store"
	storetest "github.com/hrygo/skedule/store/test"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// 2026-10-19 08:00, a Monday.
var monday = fixedClock(time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC))

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	ts := storetest.NewTestingStoreWithDriver(t.Context(), t, "sqlite")
	return NewDispatcher(ts, monday)
}

func TestDispatchLifecycle(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)
	owner := "u1"

	r := d.Dispatch(ctx, owner, "create_schedule", `{"title": "Họp nhóm", "start_time": "2026-10-20 09:00"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "✅ Đã lên lịch 'Họp nhóm' lúc 09:00 ngày 20/10/2026.", r.String())

	r = d.Dispatch(ctx, owner, "find_schedules", `{"start_date": "2026-10-20", "end_date": "2026-10-20"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "🔎 Bạn có 1 sự kiện:\n- 'Họp nhóm' lúc 09:00 ngày 20/10/2026", r.Message)

	r = d.Dispatch(ctx, owner, "reschedule", `{"title": "hop nhom", "new_time": "2 ngày sau"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "✅ Đã dời 'Họp nhóm' sang 09:00 22/10/2026.", r.Message)

	r = d.Dispatch(ctx, owner, "find_schedules", `{"start_date": "2026-10-20", "end_date": "2026-10-20"}`)
	assert.Equal(t, StatusNotFound, r.Status)
	assert.Equal(t, "📭 Bạn không có sự kiện nào từ 20/10/2026 đến 20/10/2026.", r.Message)
	assert.True(t, r.OK())

	r = d.Dispatch(ctx, owner, "summarize_progress", `{}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.True(t, strings.HasPrefix(r.Message, "📊 Tổng quan lịch trình của bạn:"), r.Message)
	assert.Contains(t, r.Message, "📊 Tổng cộng: 1 công việc.")
	assert.Contains(t, r.Message, "✅ Hoàn thành: 0 công việc.")
	assert.Contains(t, r.Message, "'Họp nhóm' lúc 09:00 22/10")

	r = d.Dispatch(ctx, owner, "complete_task", `{"title": "HỌP"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "👍 Rất tốt! Đã đánh dấu 'HỌP' là đã hoàn thành.", r.Message)

	r = d.Dispatch(ctx, owner, "summarize_progress", "")
	assert.Contains(t, r.Message, "✅ Hoàn thành: 1 công việc.")
	assert.Contains(t, r.Message, "Bạn không có lịch trình nào sắp tới")

	r = d.Dispatch(ctx, owner, "delete_schedule", `{"title": "họp"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "🗑️ Đã xóa thành công lịch trình có chứa từ khóa 'họp'.", r.Message)

	r = d.Dispatch(ctx, owner, "delete_schedule", `{"title": "họp"}`)
	assert.Equal(t, StatusNotFound, r.Status)
	assert.Equal(t, "⚠️ Không tìm thấy lịch trình nào có tên 'họp' để xóa.", r.Message)
}

func TestDispatchScopesByOwner(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)

	r := d.Dispatch(ctx, "alice", "create_schedule", `{"title": "Gym", "start_time": "2026-10-21 18:00"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)

	r = d.Dispatch(ctx, "bob", "complete_task", `{"title": "Gym"}`)
	assert.Equal(t, StatusNotFound, r.Status)
	assert.Equal(t, "🤔 Không tìm thấy công việc nào có tên 'Gym' để đánh dấu hoàn thành.", r.Message)

	r = d.Dispatch(ctx, "bob", "reschedule", `{"title": "Gym", "new_time": "tomorrow"}`)
	assert.Equal(t, StatusNotFound, r.Status)
	assert.Equal(t, "⚠️ Không tìm thấy 'Gym' để chỉnh sửa.", r.Message)
}

func TestDispatchCreateResolvesPhrases(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"relative day with clock", `{"title": "A", "start_time": "ngày mai 9h"}`, "09:00 ngày 20/10/2026"},
		{"afternoon", `{"title": "B", "start_time": "3 giờ chiều hôm nay"}`, "15:00 ngày 19/10/2026"},
		{"rfc3339 keeps wall clock", `{"title": "C", "start_time": "2026-11-01T07:30:00+07:00"}`, "07:30 ngày 01/11/2026"},
		{"vietnamese layout", `{"title": "D", "start_time": "15:04 ngày 02/01/2027"}`, "15:04 ngày 02/01/2027"},
		{"morning tomorrow", `{"title": "E", "start_time": "lúc 9h sáng mai"}`, "09:00 ngày 20/10/2026"},
		{"evening tomorrow", `{"title": "F", "start_time": "7 giờ tối mai"}`, "19:00 ngày 20/10/2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Dispatch(ctx, "u1", "create_schedule", tt.args)
			require.Equal(t, StatusOK, r.Status, r.Message)
			assert.Contains(t, r.Message, tt.want)
		})
	}
}

func TestDispatchCreateDefaultsEnd(t *testing.T) {
	ctx := t.Context()
	ts := storetest.NewTestingStoreWithDriver(ctx, t, "sqlite")
	d := NewDispatcher(ts, monday)

	r := d.Dispatch(ctx, "u1", "create_schedule", `{"title": "Standup", "start_time": "2026-10-20 09:00"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	r = d.Dispatch(ctx, "u1", "create_schedule", `{"title": "Retro", "start_time": "2026-10-20 14:00", "end_time": "2026-10-20 16:00"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	r = d.Dispatch(ctx, "u1", "create_schedule", `{"title": "Workshop", "start_time": "2026-10-20 17:00", "end_time": "3 giờ sau"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)

	list, err := ts.ListTaskSchedules(ctx, &store.FindTaskSchedule{
		Owner:     "u1",
		StartDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, time.Hour, list[0].Schedule.EndTime.Sub(list[0].Schedule.StartTime))
	assert.Equal(t, 2*time.Hour, list[1].Schedule.EndTime.Sub(list[1].Schedule.StartTime))
	assert.Equal(t, 3*time.Hour, list[2].Schedule.EndTime.Sub(list[2].Schedule.StartTime))
}

func TestDispatchRejectsUnreadableTimes(t *testing.T) {
	ctx := t.Context()
	ts := storetest.NewTestingStoreWithDriver(ctx, t, "sqlite")
	d := NewDispatcher(ts, monday)

	tests := []struct {
		name string
		tool string
		args string
		want string
	}{
		{"impossible day", "create_schedule", `{"title": "X", "start_time": "2026-02-30 09:00"}`, `unrecognized start_time "2026-02-30 09:00"`},
		{"impossible month", "create_schedule", `{"title": "X", "start_time": "2026-13-45 10:00"}`, `unrecognized start_time`},
		{"bad date with clock phrase", "create_schedule", `{"title": "X", "start_time": "30/02/2026 9h"}`, `unrecognized start_time`},
		{"nothing recognisable", "create_schedule", `{"title": "X", "start_time": "khi nào rảnh"}`, `unrecognized start_time "khi nào rảnh"`},
		{"bad end", "create_schedule", `{"title": "X", "start_time": "2026-10-20 09:00", "end_time": "not a time"}`, `unrecognized end_time "not a time"`},
		{"bad new time", "reschedule", `{"title": "X", "new_time": "lúc nào cũng được"}`, `unrecognized new_time`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Dispatch(ctx, "u1", tt.tool, tt.args)
			assert.Equal(t, StatusFailed, r.Status)
			assert.Contains(t, r.Message, "❌ Tham số không hợp lệ cho '"+tt.tool+"'")
			assert.Contains(t, r.Message, tt.want)
		})
	}

	summary, err := ts.SummarizeTasks(ctx, "u1", time.Time(monday))
	require.NoError(t, err)
	assert.Zero(t, summary.Total, "rejected calls must not write")
}

func TestDispatchRejectedRescheduleSkipsStore(t *testing.T) {
	m := new(mockStore)
	d := NewDispatcher(m, monday)

	r := d.Dispatch(context.Background(), "u1", "reschedule", `{"title": "Gym", "new_time": "khi nào rảnh"}`)
	assert.Equal(t, StatusFailed, r.Status)
	m.AssertNotCalled(t, "RescheduleTask", mock.Anything, mock.Anything)
}

func TestDispatchFindDates(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)
	require.True(t, d.Dispatch(ctx, "u1", "create_schedule", `{"title": "Review", "start_time": "2026-10-19 16:00"}`).OK())

	r := d.Dispatch(ctx, "u1", "find_schedules", `{"start_date": "hôm nay", "end_date": "19/10/2026"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Contains(t, r.Message, "'Review' lúc 16:00 ngày 19/10/2026")

	r = d.Dispatch(ctx, "u1", "find_schedules", `{"start_date": "2026-13-45", "end_date": "2026-10-19"}`)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.Message, "YYYY-MM-DD")
}

func TestDispatchFindCapsResults(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)
	for i := 0; i < store.MaxFindResults+2; i++ {
		args := fmt.Sprintf(`{"title": "Task %02d", "start_time": "2026-10-20 %02d:00"}`, i, i)
		require.True(t, d.Dispatch(ctx, "u1", "create_schedule", args).OK())
	}

	r := d.Dispatch(ctx, "u1", "find_schedules", `{"start_date": "2026-10-20", "end_date": "2026-10-20"}`)
	require.Equal(t, StatusOK, r.Status)
	assert.Contains(t, r.Message, "🔎 Bạn có 10 sự kiện:")
	assert.Contains(t, r.Message, "'Task 00'")
	assert.NotContains(t, r.Message, "'Task 10'")
}

func TestDispatchArgumentErrors(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)

	tests := []struct {
		name string
		tool string
		args string
		want string
	}{
		{"unknown tool", "launch_rocket", `{}`, "❌ Không có công cụ nào tên 'launch_rocket'."},
		{"missing title", "create_schedule", `{"start_time": "2026-10-20 09:00"}`, `missing required argument "title"`},
		{"blank title", "delete_schedule", `{"title": "   "}`, `missing required argument "title"`},
		{"not an object", "delete_schedule", `"Gym"`, "arguments must be a JSON object"},
		{"wrong type", "delete_schedule", `{"title": ["a", "b"]}`, "❌ Tham số không hợp lệ cho 'delete_schedule'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Dispatch(ctx, "u1", tt.tool, tt.args)
			assert.Equal(t, StatusFailed, r.Status)
			assert.False(t, r.OK())
			assert.Contains(t, r.Message, tt.want)
		})
	}

	r := d.Dispatch(ctx, "", "summarize_progress", `{}`)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.Message, "Không xác định được người dùng")
}

func TestRunPositional(t *testing.T) {
	ctx := t.Context()
	d := newDispatcher(t)

	r := d.RunPositional(ctx, "u1", "create_schedule", []string{"Đi chợ", "2026-10-20 07:00", "2026-10-20 07:30"})
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "✅ Đã lên lịch 'Đi chợ' lúc 07:00 ngày 20/10/2026.", r.Message)

	r = d.RunPositional(ctx, "u1", "complete_task", []string{"di cho"})
	assert.Equal(t, StatusOK, r.Status, r.Message)

	r = d.RunPositional(ctx, "u1", "complete_task", []string{"a", "b"})
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.Message, "expected at most 1 arguments")

	r = d.RunPositional(ctx, "u1", "reschedule", []string{"Đi chợ"})
	assert.Equal(t, StatusFailed, r.Status)
	assert.Contains(t, r.Message, `missing required argument "new_time"`)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateTaskSchedule(ctx context.Context, create *store.CreateTaskSchedule) (*store.TaskSchedule, error) {
	args := m.Called(ctx, create)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TaskSchedule), args.Error(1)
}

func (m *mockStore) DeleteTasks(ctx context.Context, delete *store.DeleteTask) (int64, error) {
	args := m.Called(ctx, delete)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListTaskSchedules(ctx context.Context, find *store.FindTaskSchedule) ([]*store.TaskSchedule, error) {
	args := m.Called(ctx, find)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.TaskSchedule), args.Error(1)
}

func (m *mockStore) RescheduleTask(ctx context.Context, reschedule *store.RescheduleTask) (*store.TaskSchedule, error) {
	args := m.Called(ctx, reschedule)
	if fn, ok := args.Get(0).(func(context.Context, *store.RescheduleTask) (*store.TaskSchedule, error)); ok {
		return fn(ctx, reschedule)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TaskSchedule), args.Error(1)
}

func (m *mockStore) CompleteTasks(ctx context.Context, complete *store.CompleteTask) (int64, error) {
	args := m.Called(ctx, complete)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) SummarizeTasks(ctx context.Context, owner string, now time.Time) (*store.Summary, error) {
	args := m.Called(ctx, owner, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Summary), args.Error(1)
}

func TestDispatchStoreFailuresBecomeText(t *testing.T) {
	ctx := context.Background()
	unavailable := fmt.Errorf("%w: %w", store.ErrStoreUnavailable, context.DeadlineExceeded)
	persistence := fmt.Errorf("%w: %s", store.ErrPersistence, "disk I/O error")

	m := new(mockStore)
	m.On("CreateTaskSchedule", mock.Anything, mock.Anything).Return(nil, unavailable).Once()
	m.On("DeleteTasks", mock.Anything, mock.Anything).Return(int64(0), persistence).Once()
	m.On("ListTaskSchedules", mock.Anything, mock.Anything).Return(nil, unavailable).Once()
	m.On("RescheduleTask", mock.Anything, mock.Anything).Return(nil, persistence).Once()
	m.On("CompleteTasks", mock.Anything, mock.Anything).Return(int64(0), unavailable).Once()
	m.On("SummarizeTasks", mock.Anything, "u1", time.Time(monday)).
		Return(nil, fmt.Errorf("%w: %s", store.ErrPersistence, "no such column: completed")).Once()

	d := NewDispatcher(m, monday)
	results := []Result{
		d.Dispatch(ctx, "u1", "create_schedule", `{"title": "A", "start_time": "2026-10-20 09:00"}`),
		d.Dispatch(ctx, "u1", "delete_schedule", `{"title": "A"}`),
		d.Dispatch(ctx, "u1", "find_schedules", `{"start_date": "2026-10-20", "end_date": "2026-10-21"}`),
		d.Dispatch(ctx, "u1", "reschedule", `{"title": "A", "new_time": "tuần sau"}`),
		d.Dispatch(ctx, "u1", "complete_task", `{"title": "A"}`),
		d.Dispatch(ctx, "u1", "summarize_progress", `{}`),
	}
	for _, r := range results {
		assert.Equal(t, StatusFailed, r.Status, r.Kind)
		assert.Contains(t, r.Message, "❌", r.Kind)
		assert.NotContains(t, r.Message, "disk I/O", r.Kind)
	}
	assert.Contains(t, results[0].Message, "tạm thời không phản hồi")
	assert.Contains(t, results[1].Message, "❌ Lỗi khi xóa:")
	assert.Contains(t, results[5].Message, "cột 'completed'")
	m.AssertExpectations(t)
}

func TestDispatchRescheduleResolvesFromCurrentStart(t *testing.T) {
	m := new(mockStore)
	current := time.Date(2026, time.January, 31, 10, 0, 0, 0, time.UTC)
	m.On("RescheduleTask", mock.Anything, mock.MatchedBy(func(r *store.RescheduleTask) bool {
		return r.Owner == "u1" && r.Title == "Báo cáo"
	})).Return(func(_ context.Context, r *store.RescheduleTask) (*store.TaskSchedule, error) {
		start, end := r.Resolve(current)
		return &store.TaskSchedule{
			Task:     store.Task{ID: 7, Title: "Báo cáo tháng"},
			Schedule: store.Schedule{StartTime: start, EndTime: end},
		}, nil
	}, nil).Once()

	d := NewDispatcher(m, monday)
	r := d.Dispatch(context.Background(), "u1", "reschedule", `{"Title": "Báo cáo", "New_time": "1 tháng sau"}`)
	require.Equal(t, StatusOK, r.Status, r.Message)
	assert.Equal(t, "✅ Đã dời 'Báo cáo tháng' sang 10:00 28/02/2026.", r.Message)
	m.AssertExpectations(t)
}
