package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/skedule/plugin/ai/agent"
	"github.com/hrygo/skedule/plugin/ai/agent/tools"
	"github.com/hrygo/skedule/plugin/ai/session"
	storetest "github.com/hrygo/skedule/store/test"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type scriptedReader struct {
	lines []string
	err   error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type fakeAssistant struct {
	owners []string
	inputs []string
}

func (f *fakeAssistant) RunWithCallback(_ context.Context, owner, input string, callback agent.Callback) (string, error) {
	f.owners = append(f.owners, owner)
	f.inputs = append(f.inputs, input)
	callback(agent.EventToolUse, `find_schedules:{}`)
	return "Bạn không có sự kiện nào.", nil
}

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()
	ts := storetest.NewTestingStoreWithDriver(context.Background(), t, "sqlite")
	clock := fixedClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
	out := &bytes.Buffer{}
	return &repl{
		owner:      "alice",
		dispatcher: tools.NewDispatcher(ts, clock),
		sessions:   session.NewMemoryStore(),
		out:        out,
	}, out
}

func TestREPLRunsToolsDirectly(t *testing.T) {
	r, out := newTestREPL(t)
	ctx := context.Background()

	assert.False(t, r.handle(ctx, `/run create_schedule {"title": "Họp nhóm", "start_time": "2026-10-20 09:00"}`))
	assert.Contains(t, out.String(), "✅")

	out.Reset()
	assert.False(t, r.handle(ctx, `/run find_schedules {"start_date": "2026-10-20", "end_date": "2026-10-20"}`))
	assert.Contains(t, out.String(), "Họp nhóm")

	out.Reset()
	assert.False(t, r.handle(ctx, "/run nope"))
	assert.Contains(t, out.String(), "❌")
}

func TestREPLRunsPositionalArguments(t *testing.T) {
	r, out := newTestREPL(t)
	ctx := context.Background()

	r.handle(ctx, "/run create_schedule Đi chợ | 2026-10-20 07:00 | 2026-10-20 07:30")
	assert.Equal(t, "✅ Đã lên lịch 'Đi chợ' lúc 07:00 ngày 20/10/2026.\n", out.String())

	out.Reset()
	r.handle(ctx, "/run complete_task di cho")
	assert.Contains(t, out.String(), "👍")

	out.Reset()
	r.handle(ctx, "/run complete_task a | b")
	assert.Contains(t, out.String(), "expected at most 1 arguments")
}

func TestREPLWithoutAgent(t *testing.T) {
	r, out := newTestREPL(t)
	assert.False(t, r.handle(context.Background(), "lên lịch họp mai 9h"))
	assert.Contains(t, out.String(), "/run")
}

func TestREPLUsesAgentAndResets(t *testing.T) {
	r, out := newTestREPL(t)
	fake := &fakeAssistant{}
	r.agent = fake
	r.sessions.GetOrCreate(session.Key("alice")).Append(session.Message{Role: session.RoleUser, Content: "xin chào"})

	assert.False(t, r.handle(context.Background(), "tuần sau tôi có gì?"))
	assert.Equal(t, []string{"alice"}, fake.owners)
	assert.Equal(t, []string{"tuần sau tôi có gì?"}, fake.inputs)
	assert.Contains(t, out.String(), "find_schedules")
	assert.Contains(t, out.String(), "Bạn không có sự kiện nào.")

	r.handle(context.Background(), "/reset")
	_, ok := r.sessions.Get(session.Key("alice"))
	assert.False(t, ok)
}

func TestREPLLoop(t *testing.T) {
	r, out := newTestREPL(t)

	err := r.loop(context.Background(), &scriptedReader{lines: []string{"", "/tools", "/quit", "/tools"}})
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("create_schedule")))

	require.NoError(t, r.loop(context.Background(), &scriptedReader{}))
	require.NoError(t, r.loop(context.Background(), &scriptedReader{err: readline.ErrInterrupt}))
}
