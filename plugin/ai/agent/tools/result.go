package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/skedule/store"
)

// Status classifies a Result. A not-found outcome is not a failure.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Result is the outcome of a tool call. Message starts with a status glyph and
// reads as a complete sentence, so it can be shown to the user as is.
type Result struct {
	Kind    Kind
	Status  Status
	Message string
}

// OK reports whether the call did not fail. Not-found outcomes are OK.
func (r Result) OK() bool {
	return r.Status != StatusFailed
}

func (r Result) String() string {
	return r.Message
}

const (
	// Used in listings and creation confirmations.
	longLayout = "15:04 ngày 02/01/2006"
	// Used when confirming a move.
	shortLayout = "15:04 02/01/2006"
	// Used in the upcoming part of a summary.
	summaryLayout = "15:04 02/01"
	dayLayout     = "02/01/2006"
)

func success(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

func notFound(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Status: StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func failed(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Status: StatusFailed, Message: fmt.Sprintf(format, args...)}
}

func formatList(list []*store.TaskSchedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Bạn có %d sự kiện:", len(list))
	for _, ts := range list {
		fmt.Fprintf(&b, "\n- '%s' lúc %s", ts.Task.Title, ts.Schedule.StartTime.Format(longLayout))
		if ts.Task.Completed {
			b.WriteString(" (đã hoàn thành)")
		}
	}
	return b.String()
}

func formatSummary(summary *store.Summary) string {
	var b strings.Builder
	b.WriteString("📊 Tổng quan lịch trình của bạn:\n")
	fmt.Fprintf(&b, "- 📊 Tổng cộng: %d công việc.\n", summary.Total)
	fmt.Fprintf(&b, "- ✅ Hoàn thành: %d công việc.\n", summary.Completed)
	if len(summary.Upcoming) == 0 {
		b.WriteString("- 🗓️ Bạn không có lịch trình nào sắp tới hoặc tất cả đều đã hoàn thành.")
		return b.String()
	}
	b.WriteString("- 🗓️ Các lịch trình chưa hoàn thành sắp tới:")
	for _, ts := range summary.Upcoming {
		fmt.Fprintf(&b, "\n  - '%s' lúc %s", ts.Task.Title, ts.Schedule.StartTime.Format(summaryLayout))
	}
	return b.String()
}

func formatDay(t time.Time) string {
	return t.Format(dayLayout)
}
