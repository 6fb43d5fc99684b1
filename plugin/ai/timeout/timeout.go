// Package timeout defines the shared time and iteration bounds of the assistant.
package timeout

import "time"

const (
	// AgentTimeout bounds one agent run, tool rounds included.
	AgentTimeout = 2 * time.Minute

	// MaxIterations is the maximum number of tool-calling rounds per run.
	MaxIterations = 5

	// MaxTruncateLength is the maximum length of free text written to logs.
	MaxTruncateLength = 200
)
