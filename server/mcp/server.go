// Package mcp exposes the schedule tool catalogue over the Model Context
// Protocol so that desktop assistants can drive one caller's calendar.
package mcp

import (
	"context"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hrygo/skedule/plugin/ai/agent/tools"
)

// Dispatcher runs a catalogue tool on behalf of a caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, owner, name, argsJSON string) tools.Result
}

// Server serves the catalogue for a single caller identity, fixed at startup.
type Server struct {
	server     *gomcp.Server
	dispatcher Dispatcher
	owner      string
}

// NewServer creates an MCP server whose tool calls act as owner.
func NewServer(dispatcher Dispatcher, owner, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		dispatcher: dispatcher,
		owner:      owner,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "skedule", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server, for tests and custom transports.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

func (s *Server) registerTools() {
	for _, tool := range tools.Catalogue() {
		s.server.AddTool(&gomcp.Tool{
			Name:        string(tool.Name),
			Description: tool.Description + "\nUse when: " + tool.Intent,
			InputSchema: tool.Schema,
		}, s.handle(tool.Name))
	}
}

// handle forwards the raw argument object to the dispatcher. Argument
// validation happens there, so a bad call still yields a readable sentence.
func (s *Server) handle(name tools.Kind) gomcp.ToolHandler {
	return func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		args := "{}"
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			args = string(req.Params.Arguments)
		}
		result := s.dispatcher.Dispatch(ctx, s.owner, string(name), args)
		slog.Debug("mcp tool call", "tool", name, "status", result.Status.String())
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: result.String()}},
			IsError: !result.OK(),
		}, nil
	}
}
