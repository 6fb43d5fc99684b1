package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant, tool
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID links a tool message to the call it answers.
	ToolCallID string
}

// ToolDescriptor describes a tool offered to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	// Parameters is the JSON Schema of the tool arguments.
	Parameters string
}

// FunctionCall is the function part of a tool call.
type FunctionCall struct {
	Name      string
	Arguments string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

// ChatResponse is the model reply to ChatWithTools.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatWithTools lets the model either answer or request tool calls.
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error)
}

type llmService struct {
	client *openai.Client
	config LLMConfig
}

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	switch cfg.Provider {
	case "openai", "deepseek", "gemini", "ollama":
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("LLM model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	config := *cfg
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	return &llmService{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := s.ChatWithTools(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *llmService) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    convertMessages(messages),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}
	for _, tool := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  json.RawMessage(tool.Parameters),
			},
		})
	}

	var result *ChatResponse
	err := s.doWithRetry(ctx, func() error {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		msg := resp.Choices[0].Message
		result = &ChatResponse{Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete chat: %w", err)
	}
	return result, nil
}

// doWithRetry executes a function with exponential backoff retry.
func (s *llmService) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < s.config.MaxRetries-1 {
			waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Debug("LLM request failed, retrying",
				"attempt", attempt+1,
				"wait_time", waitTime,
				"error", err)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		llmMessages[i] = msg
	}
	return llmMessages
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: openai.ChatMessageRoleSystem, Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleUser, Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleAssistant, Content: content}
}

// ToolMessage answers the tool call callID with content.
func ToolMessage(callID, content string) Message {
	return Message{Role: openai.ChatMessageRoleTool, Content: content, ToolCallID: callID}
}
