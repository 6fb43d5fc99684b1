// Package agent runs the tool-calling loop that turns a caller's message into
// schedule operations and a conversational reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/skedule/internal/util"
	"github.com/hrygo/skedule/plugin/ai"
	"github.com/hrygo/skedule/plugin/ai/agent/tools"
	"github.com/hrygo/skedule/plugin/ai/session"
	"github.com/hrygo/skedule/plugin/ai/timeout"
)

const (
	defaultMaxIterations = timeout.MaxIterations
	defaultHistoryLimit  = 20

	maxInputLengthForLog = timeout.MaxTruncateLength
)

// Config holds configuration for creating a new Agent.
type Config struct {
	// Name identifies this agent in logs.
	Name string

	// PromptVersion selects the system prompt template.
	PromptVersion PromptVersion

	// MaxIterations is the maximum number of tool-calling rounds.
	MaxIterations int

	// HistoryLimit is how many past messages of the session are sent to the model.
	HistoryLimit int
}

// Agent is a lightweight tool-calling agent over the schedule tools.
// It is safe for concurrent use; per-caller state lives in the session store.
type Agent struct {
	llm         ai.LLMService
	dispatcher  *tools.Dispatcher
	sessions    session.Store
	clock       tools.Clock
	config      Config
	descriptors []ai.ToolDescriptor
}

// NewAgent creates a new Agent.
func NewAgent(llm ai.LLMService, dispatcher *tools.Dispatcher, sessions session.Store, clock tools.Clock, config Config) *Agent {
	if config.Name == "" {
		config.Name = "skedule"
	}
	if config.PromptVersion == "" {
		config.PromptVersion = PromptV1
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaultMaxIterations
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = defaultHistoryLimit
	}
	return &Agent{
		llm:         llm,
		dispatcher:  dispatcher,
		sessions:    sessions,
		clock:       clock,
		config:      config,
		descriptors: ToolDescriptors(),
	}
}

// ToolDescriptors converts the tool catalogue to the form offered to the model.
func ToolDescriptors() []ai.ToolDescriptor {
	catalogue := tools.Catalogue()
	descriptors := make([]ai.ToolDescriptor, len(catalogue))
	for i, tool := range catalogue {
		descriptors[i] = ai.ToolDescriptor{
			Name:        string(tool.Name),
			Description: tool.Intent + " " + tool.Description,
			Parameters:  string(tool.Schema),
		}
	}
	return descriptors
}

// Callback is called during agent execution for events.
type Callback func(event string, data string)

// Event constants for callbacks.
const (
	EventToolUse    = "tool_use"
	EventToolResult = "tool_result"
	EventAnswer     = "answer"
	EventDegraded   = "degraded"
)

// Run answers input on behalf of owner.
func (a *Agent) Run(ctx context.Context, owner, input string) (string, error) {
	return a.RunWithCallback(ctx, owner, input, nil)
}

// RunWithCallback executes the agent with callback support.
//
// When the model fails after a tool already ran, the last tool result is
// returned as the answer, since it is a complete sentence on its own.
// Both the input and the answer are appended to the caller's session.
func (a *Agent) RunWithCallback(ctx context.Context, owner, input string, callback Callback) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", ErrMissingOwner
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}
	notify := func(event, data string) {
		if callback != nil {
			callback(event, data)
		}
	}

	sess := a.sessions.GetOrCreate(session.Key(owner))
	messages := a.buildMessages(sess.Recent(a.config.HistoryLimit), input)
	logger := slog.With("agent", a.config.Name, "owner", owner)
	logger.Debug("agent run started", "input", util.TruncateRunes(input, maxInputLengthForLog))

	var answer, lastToolResult string
	for iteration := 0; ; iteration++ {
		if iteration >= a.config.MaxIterations {
			if lastToolResult == "" {
				return "", fmt.Errorf("%w (%d)", ErrMaxIterations, a.config.MaxIterations)
			}
			logger.Warn("agent hit max iterations, returning last tool result", "iterations", iteration)
			notify(EventDegraded, lastToolResult)
			answer = lastToolResult
			break
		}

		resp, err := a.llm.ChatWithTools(ctx, messages, a.descriptors)
		if err != nil {
			if lastToolResult == "" || errors.Is(err, context.Canceled) {
				return "", fmt.Errorf("LLM call failed (iteration %d): %w", iteration+1, err)
			}
			logger.Warn("LLM failed after tool execution, returning tool result", "iteration", iteration+1, "error", err)
			notify(EventDegraded, lastToolResult)
			answer = lastToolResult
			break
		}

		if len(resp.ToolCalls) == 0 {
			answer = strings.TrimSpace(resp.Content)
			if answer == "" {
				answer = lastToolResult
			}
			notify(EventAnswer, answer)
			break
		}

		messages = append(messages, ai.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			notify(EventToolUse, fmt.Sprintf("%s:%s", tc.Function.Name, tc.Function.Arguments))

			result := a.dispatcher.Dispatch(ctx, owner, tc.Function.Name, tc.Function.Arguments)
			lastToolResult = result.Message
			logger.Info("tool executed",
				"tool", tc.Function.Name,
				"status", result.Status.String(),
				"iteration", iteration+1)

			notify(EventToolResult, result.Message)
			messages = append(messages, ai.ToolMessage(tc.ID, result.Message))
		}
	}

	sess.Append(
		session.Message{Role: session.RoleUser, Content: input},
		session.Message{Role: session.RoleAssistant, Content: answer},
	)
	return answer, nil
}

func (a *Agent) buildMessages(history []session.Message, input string) []ai.Message {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.SystemPrompt(BuildSystemPrompt(a.config.PromptVersion, a.clock.Now())))
	for _, msg := range history {
		switch msg.Role {
		case session.RoleUser:
			messages = append(messages, ai.UserMessage(msg.Content))
		case session.RoleAssistant:
			messages = append(messages, ai.AssistantMessage(msg.Content))
		}
	}
	return append(messages, ai.UserMessage(input))
}
