package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hrygo/skedule/plugin/ai/agent"
	"github.com/hrygo/skedule/plugin/ai/agent/tools"
	"github.com/hrygo/skedule/plugin/ai/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in a local REPL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer a.Close()

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "skedule> ",
			HistoryFile:     filepath.Join(os.TempDir(), ".skedule_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "/quit",
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()

		r := &repl{
			owner:      owner,
			dispatcher: a.dispatcher,
			sessions:   a.sessions,
			out:        rl.Stdout(),
		}
		if a.agent != nil {
			r.agent = a.agent
		}
		fmt.Fprintf(r.out, "Skedule %s. Gõ /help để xem lệnh.\n", version)
		return r.loop(ctx, rl)
	},
}

func init() {
	chatCmd.Flags().String("owner", "local", "caller identity the conversation acts as")
}

// assistant is the part of the agent the REPL needs.
type assistant interface {
	RunWithCallback(ctx context.Context, owner, input string, callback agent.Callback) (string, error)
}

type lineReader interface {
	Readline() (string, error)
}

type repl struct {
	owner      string
	agent      assistant
	dispatcher *tools.Dispatcher
	sessions   session.Store
	out        io.Writer
}

func (r *repl) loop(ctx context.Context, in lineReader) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle runs one line and reports whether the REPL should exit.
func (r *repl) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false
	case line == "/quit" || line == "/exit":
		return true
	case line == "/help":
		fmt.Fprintln(r.out, "/tools                 liệt kê công cụ")
		fmt.Fprintln(r.out, "/run <tool> [json]     gọi trực tiếp một công cụ")
		fmt.Fprintln(r.out, "/run <tool> a | b      gọi công cụ với tham số theo thứ tự")
		fmt.Fprintln(r.out, "/reset                 xóa lịch sử hội thoại")
		fmt.Fprintln(r.out, "/quit                  thoát")
	case line == "/tools":
		for _, tool := range tools.Catalogue() {
			fmt.Fprintf(r.out, "%-20s %s\n", tool.Name, strings.Join(tool.Params, ", "))
		}
	case line == "/reset":
		r.sessions.Evict(session.Key(r.owner))
		fmt.Fprintln(r.out, "Đã xóa lịch sử hội thoại.")
	case strings.HasPrefix(line, "/run "):
		fmt.Fprintln(r.out, r.runTool(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/run "))).String())
	case r.agent == nil:
		fmt.Fprintln(r.out, "Chưa cấu hình mô hình ngôn ngữ. Dùng /run <tool> <json> để gọi công cụ trực tiếp.")
	default:
		answer, err := r.agent.RunWithCallback(ctx, r.owner, line, func(event, data string) {
			if event == agent.EventToolUse {
				fmt.Fprintf(r.out, "  · %s\n", data)
			}
		})
		if err != nil {
			fmt.Fprintf(r.out, "Lỗi: %v\n", err)
			return false
		}
		fmt.Fprintln(r.out, answer)
	}
	return false
}

// runTool calls a tool with a JSON object, or with positional arguments
// separated by "|" when the arguments do not start with "{".
func (r *repl) runTool(ctx context.Context, command string) tools.Result {
	name, args, _ := strings.Cut(command, " ")
	args = strings.TrimSpace(args)
	if args == "" || strings.HasPrefix(args, "{") {
		return r.dispatcher.Dispatch(ctx, r.owner, name, args)
	}
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return r.dispatcher.RunPositional(ctx, r.owner, name, parts)
}
