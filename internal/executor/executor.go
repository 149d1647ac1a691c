// Package executor defines the interface for running snippet code in an
// isolated environment.
package executor

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedLanguage is returned when no runtime is configured for the
// snippet's language.
var ErrUnsupportedLanguage = errors.New("executor: unsupported language")

// ExecutionRequest carries one snippet's code and the language to run it as.
type ExecutionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ExecutionResult represents the output and status of a run.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Executor runs code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}
