package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Request is a validated tool call. The concrete type tells the operation.
type Request interface {
	Kind() Kind
}

// CreateRequest asks for a new task and schedule.
type CreateRequest struct {
	Title     string
	StartTime string
	EndTime   string
}

// DeleteRequest removes tasks by title.
type DeleteRequest struct {
	Title string
}

// FindRequest lists schedules in a date range.
type FindRequest struct {
	StartDate string
	EndDate   string
}

// RescheduleRequest moves a task to a new time.
type RescheduleRequest struct {
	Title   string
	NewTime string
}

// CompleteRequest marks tasks as done.
type CompleteRequest struct {
	Title string
}

// SummarizeRequest asks for a progress overview.
type SummarizeRequest struct{}

func (CreateRequest) Kind() Kind     { return KindCreate }
func (DeleteRequest) Kind() Kind     { return KindDelete }
func (FindRequest) Kind() Kind       { return KindFind }
func (RescheduleRequest) Kind() Kind { return KindReschedule }
func (CompleteRequest) Kind() Kind   { return KindComplete }
func (SummarizeRequest) Kind() Kind  { return KindSummarize }

// ArgumentError reports a tool call whose arguments could not be decoded or validated.
type ArgumentError struct {
	Tool   Kind
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// DecodeJSON parses a JSON argument object for tool. Keys are matched exactly,
// then with the first letter capitalised, then case-insensitively.
func DecodeJSON(tool *Tool, argsJSON string) (Request, error) {
	raw := map[string]any{}
	if trimmed := strings.TrimSpace(argsJSON); trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, &ArgumentError{Tool: tool.Name, Reason: "arguments must be a JSON object"}
		}
	}
	return decode(tool, canonicalize(tool, raw))
}

// DecodePositional maps args onto the tool parameters in declaration order.
func DecodePositional(tool *Tool, args []string) (Request, error) {
	if len(args) > len(tool.Params) {
		return nil, &ArgumentError{
			Tool:   tool.Name,
			Reason: fmt.Sprintf("expected at most %d arguments, got %d", len(tool.Params), len(args)),
		}
	}
	values := make(map[string]any, len(args))
	for i, arg := range args {
		values[tool.Params[i]] = arg
	}
	return decode(tool, values)
}

func decode(tool *Tool, values map[string]any) (Request, error) {
	for _, name := range tool.Required {
		v, ok := values[name]
		if s, isString := v.(string); !ok || v == nil || (isString && strings.TrimSpace(s) == "") {
			return nil, &ArgumentError{Tool: tool.Name, Reason: fmt.Sprintf("missing required argument %q", name)}
		}
	}
	if err := tool.compiled.Validate(values); err != nil {
		return nil, &ArgumentError{Tool: tool.Name, Reason: err.Error()}
	}

	str := func(name string) string {
		s, _ := values[name].(string)
		return strings.TrimSpace(s)
	}
	switch tool.Name {
	case KindCreate:
		return CreateRequest{Title: str("title"), StartTime: str("start_time"), EndTime: str("end_time")}, nil
	case KindDelete:
		return DeleteRequest{Title: str("title")}, nil
	case KindFind:
		return FindRequest{StartDate: str("start_date"), EndDate: str("end_date")}, nil
	case KindReschedule:
		return RescheduleRequest{Title: str("title"), NewTime: str("new_time")}, nil
	case KindComplete:
		return CompleteRequest{Title: str("title")}, nil
	case KindSummarize:
		return SummarizeRequest{}, nil
	}
	return nil, &ArgumentError{Tool: tool.Name, Reason: "unsupported tool"}
}

// canonicalize keeps only the keys the tool declares, renamed to their canonical form.
// Numbers and booleans are turned into strings since every parameter is textual.
func canonicalize(tool *Tool, raw map[string]any) map[string]any {
	out := make(map[string]any, len(tool.Params))
	for _, name := range tool.Params {
		v, ok := lookupKey(raw, name)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case nil:
			continue
		case string:
			out[name] = x
		case float64, bool:
			out[name] = fmt.Sprint(x)
		default:
			out[name] = x
		}
	}
	return out
}

func lookupKey(raw map[string]any, name string) (any, bool) {
	if v, ok := raw[name]; ok {
		return v, true
	}
	if v, ok := raw[capitalize(name)]; ok {
		return v, true
	}
	for key, v := range raw {
		if strings.EqualFold(key, name) {
			return v, true
		}
		if canonical, ok := aliases[strings.ToLower(key)]; ok && canonical == name {
			return v, true
		}
	}
	return nil, false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
