// Package bridge carries handler intents to the host layout application.
//
// Handlers describe what they want as a Command; a Bridge executes it and
// returns the host's textual reply. ExecBridge talks to a long-running helper
// process over newline-delimited JSON; Recorder keeps commands in memory and is
// used for dry runs and tests.
//
// Execute is synchronous and may block for seconds while the host works. No
// timeout is applied here.
package bridge

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the helper process cannot be started or has
// gone away.
var ErrUnavailable = errors.New("host automation bridge unavailable")

// Command is one host action.
type Command struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Bridge executes commands against the host application.
type Bridge interface {
	Execute(ctx context.Context, cmd Command) (string, error)
}

// HostError is returned when the host application rejected a command.
type HostError struct {
	Action  string
	Code    string
	Message string
}

func (e *HostError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Action == "" {
		return msg
	}
	return fmt.Sprintf("%s rejected: %s", e.Action, msg)
}
