// Package llm provides the transport to the language-model backend.
package llm

import (
	"errors"
	"fmt"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Format selects how the backend should shape its reply.
type Format string

const (
	// FormatJSON asks the backend to constrain output to a JSON document.
	FormatJSON Format = "json"

	// FormatText leaves the reply as free text.
	FormatText Format = "text"
)

// Sentinel errors returned by [Client.Generate]. Callers use errors.Is.
var (
	// ErrUnreachable means every attempt failed at the transport level
	// (connection error or non-2xx status).
	ErrUnreachable = errors.New("model backend unreachable")

	// ErrUnexpected means a failure that retrying cannot fix, such as
	// an undecodable response. No retry is attempted.
	ErrUnexpected = errors.New("unexpected model backend failure")
)

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Stream      bool     `json:"stream"`
	Format      string   `json:"format,omitempty"`
	Temperature float64  `json:"temperature"`
	Options     *Options `json:"options,omitempty"`
}

// Options are model parameters.
type Options struct {
	Temperature float64 `json:"temperature"`
}

// generateResponse is the non-streaming reply of /api/generate.
type generateResponse struct {
	Model         string `json:"model"`
	CreatedAt     string `json:"created_at"`
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration,omitempty"`
	EvalCount     int    `json:"eval_count,omitempty"`
}

// transportError marks a failure that is worth retrying.
type transportError struct {
	StatusCode int // zero for connection-level failures
	Err        error
}

func (e *transportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return e.Err.Error()
}

func (e *transportError) Unwrap() error { return e.Err }
