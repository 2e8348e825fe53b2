package bridge

import (
	"context"
	"sync"
)

// Recorder is an in-memory Bridge. Every command is recorded and answered with
// "ok" unless a failure was scripted for its action.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	failures map[string]string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		failures: make(map[string]string),
	}
}

// Execute records cmd.
func (r *Recorder) Execute(_ context.Context, cmd Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	if msg, ok := r.failures[cmd.Action]; ok {
		return "", &HostError{Action: cmd.Action, Message: msg}
	}
	return "ok", nil
}

// FailOn makes every later command with action fail with message.
func (r *Recorder) FailOn(action, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[action] = message
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	for i, c := range r.commands {
		out[i] = c.Action
	}
	return out
}
