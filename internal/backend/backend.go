// Package backend fetches raw answers from a language model, either
// through the chatr API server or directly from Ollama, Anthropic or
// Gemini.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrBackend means the backend answered but reported a failure.
	ErrBackend = errors.New("backend error")
)

// Error describes a failed backend call.
type Error struct {
	Op     string // endpoint or operation, e.g. "POST /chat"
	Status int    // HTTP status, 0 if none was received
	// Message is the backend's own explanation, if it gave one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Request is one question for the model.
type Request struct {
	Query string
	// Mode selects code generation ("interactive" or "script"). Empty
	// means a plain chat answer.
	Mode string
	// EnvironmentContext describes the caller's R session, if known.
	EnvironmentContext string
}

// Generator produces a raw, unstructured model answer.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// HealthChecker is implemented by generators that can probe their backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}
