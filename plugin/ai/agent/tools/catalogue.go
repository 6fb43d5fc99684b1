// Package tools exposes the schedule store to the language model as a fixed
// catalogue of named operations. Every call ends in a Result carrying a
// self-contained Vietnamese sentence, whatever went wrong underneath.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Kind names one of the catalogue operations.
type Kind string

const (
	KindCreate     Kind = "create_schedule"
	KindDelete     Kind = "delete_schedule"
	KindFind       Kind = "find_schedules"
	KindReschedule Kind = "reschedule"
	KindComplete   Kind = "complete_task"
	KindSummarize  Kind = "summarize_progress"
	KindUnknown    Kind = "unknown"
)

// Tool describes one catalogue entry. The caller identity is never a parameter;
// the dispatcher injects it.
type Tool struct {
	Name Kind `yaml:"name"`
	// Intent is the kind of user request that should trigger the tool.
	Intent      string `yaml:"intent"`
	Description string `yaml:"description"`
	// Params lists parameter names in positional order.
	Params   []string `yaml:"params"`
	Required []string `yaml:"required"`
	// Schema is the JSON Schema of the argument object.
	Schema json.RawMessage `yaml:"-"`

	compiled *jsonschema.Schema
}

// aliases maps alternative parameter spellings seen from models onto canonical names.
var aliases = map[string]string{
	"tieu_de":            "title",
	"tieu_de_cu":         "title",
	"old_title":          "title",
	"thoi_gian_bat_dau":  "start_time",
	"thoi_gian_ket_thuc": "end_time",
	"thoi_gian_moi":      "new_time",
	"ngay_bat_dau":       "start_date",
	"ngay_ket_thuc":      "end_date",
}

var catalogue = []*Tool{
	{
		Name:   KindCreate,
		Intent: `The user wants to add an event: "lên lịch họp nhóm lúc 9h sáng mai", "schedule a dentist visit on 2026-10-21 14:00".`,
		Description: "Create a task and its time slot. start_time is an absolute timestamp (YYYY-MM-DD HH:MM) " +
			"or a relative phrase such as \"ngày mai 9h\". end_time is optional and defaults to one hour after start_time.",
		Params:   []string{"title", "start_time", "end_time"},
		Required: []string{"title", "start_time"},
		Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1, "description": "Event title"},
    "start_time": {"type": "string", "minLength": 1, "description": "Start, e.g. 2026-10-20 09:00 or \"ngày mai 9h\""},
    "end_time": {"type": "string", "description": "Optional end, e.g. 2026-10-20 10:00"}
  },
  "required": ["title", "start_time"]
}`),
	},
	{
		Name:        KindDelete,
		Intent:      `The user wants to remove an event: "xóa lịch họp nhóm", "cancel the dentist appointment".`,
		Description: "Delete every task whose title matches title, together with its schedule.",
		Params:      []string{"title"},
		Required:    []string{"title"},
		Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1, "description": "Title or keyword of the event to delete"}
  },
  "required": ["title"]
}`),
	},
	{
		Name:   KindFind,
		Intent: `The user asks what is planned in a date range: "tuần này tôi có lịch gì?", "what do I have on 2026-10-21?".`,
		Description: "List up to 10 events whose start date lies between start_date and end_date inclusive. " +
			"Dates MUST be formatted YYYY-MM-DD.",
		Params:   []string{"start_date", "end_date"},
		Required: []string{"start_date", "end_date"},
		Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "start_date": {"type": "string", "minLength": 1, "description": "First day, YYYY-MM-DD"},
    "end_date": {"type": "string", "minLength": 1, "description": "Last day, YYYY-MM-DD"}
  },
  "required": ["start_date", "end_date"]
}`),
	},
	{
		Name:   KindReschedule,
		Intent: `The user wants to move an existing event: "dời họp nhóm sang 2 ngày sau", "move standup to 3pm".`,
		Description: "Move the most recently created event matching title. new_time is resolved relative to the " +
			"event's current start, e.g. \"2 ngày sau\", \"tuần sau\", \"15:00\". The new slot lasts one hour.",
		Params:   []string{"title", "new_time"},
		Required: []string{"title", "new_time"},
		Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1, "description": "Title or keyword of the event to move"},
    "new_time": {"type": "string", "minLength": 1, "description": "New time, absolute or relative to the current start"}
  },
  "required": ["title", "new_time"]
}`),
	},
	{
		Name:        KindComplete,
		Intent:      `The user says a task is done: "xong", "hoàn thành", "đã làm", "I finished the report".`,
		Description: "Mark every task whose title matches title as completed.",
		Params:      []string{"title"},
		Required:    []string{"title"},
		Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1, "description": "Title or keyword of the finished task"}
  },
  "required": ["title"]
}`),
	},
	{
		Name:        KindSummarize,
		Intent:      `The user asks a general question: "tôi có lịch trình gì không?", "how am I doing?".`,
		Description: "Summarize progress: total tasks, completed tasks and the next three unfinished events.",
		Params:      []string{},
		Required:    []string{},
		Schema:      json.RawMessage(`{"type": "object", "properties": {}}`),
	},
}

var catalogueIndex = map[Kind]*Tool{}

func init() {
	for _, tool := range catalogue {
		tool.compiled = mustCompile(tool)
		catalogueIndex[tool.Name] = tool
	}
}

func mustCompile(tool *Tool) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(tool.Schema)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse schema of %s: %v", tool.Name, err))
	}
	c := jsonschema.NewCompiler()
	url := string(tool.Name) + ".json"
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("failed to add schema of %s: %v", tool.Name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema of %s: %v", tool.Name, err))
	}
	return compiled
}

// Catalogue returns the tool descriptions in a stable order.
func Catalogue() []Tool {
	out := make([]Tool, len(catalogue))
	for i, tool := range catalogue {
		out[i] = *tool
	}
	return out
}

// Lookup returns the tool named name.
func Lookup(name string) (*Tool, bool) {
	tool, ok := catalogueIndex[Kind(strings.TrimSpace(name))]
	return tool, ok
}
