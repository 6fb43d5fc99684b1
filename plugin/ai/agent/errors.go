package agent

import "errors"

var (
	// ErrMissingOwner indicates a request without a caller identity.
	ErrMissingOwner = errors.New("caller identity is required")

	// ErrEmptyInput indicates a request without any text to act on.
	ErrEmptyInput = errors.New("input is empty")

	// ErrMaxIterations indicates the model kept calling tools without answering.
	ErrMaxIterations = errors.New("max iterations exceeded")
)
