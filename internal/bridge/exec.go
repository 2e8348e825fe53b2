package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/ironsheep/layout-tools-mcp/internal/logging"
)

const (
	jsonRPCVersion     = "2.0"
	maxReplySize       = 12 * 1024 * 1024
	maxRestartAttempts = 3
)

type hostRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

type hostResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *hostRPCError   `json:"error,omitempty"`
}

type hostRPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ExecBridge runs the host helper as a child process and exchanges one JSON
// line per command with it. The helper is started lazily and restarted after
// it exits, up to maxRestartAttempts consecutive failures.
type ExecBridge struct {
	mu       sync.Mutex
	argv     []string
	env      []string
	dir      string
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	reader   *bufio.Reader
	nextID   int
	failures int
	disabled bool
	closed   bool
	logger   *slog.Logger
}

// ExecOption configures an ExecBridge.
type ExecOption func(*ExecBridge)

// WithLogger sets the logger used for helper diagnostics.
func WithLogger(logger *slog.Logger) ExecOption {
	return func(b *ExecBridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithEnv appends environment variables for the helper process.
func WithEnv(env ...string) ExecOption {
	return func(b *ExecBridge) { b.env = append(b.env, env...) }
}

// WithDir sets the helper's working directory.
func WithDir(dir string) ExecOption {
	return func(b *ExecBridge) { b.dir = dir }
}

// NewExec returns a bridge that runs argv as the host helper.
func NewExec(argv []string, opts ...ExecOption) *ExecBridge {
	b := &ExecBridge{
		argv:   append([]string(nil), argv...),
		nextID: 1,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute sends cmd to the helper and waits for its reply.
func (b *ExecBridge) Execute(ctx context.Context, cmd Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureRunningLocked(); err != nil {
		return "", err
	}

	id := b.nextID
	b.nextID++
	payload, err := json.Marshal(hostRequest{JSONRPC: jsonRPCVersion, ID: id, Method: cmd.Action, Params: cmd.Params})
	if err != nil {
		return "", fmt.Errorf("encode host command: %w", err)
	}
	b.logger.Debug("bridge.request", "action", cmd.Action, "id", id, "params", logging.RedactAny(cmd.Params))
	if _, err := b.stdin.Write(append(payload, '\n')); err != nil {
		b.handleExitLocked(err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for {
		line, err := b.reader.ReadBytes('\n')
		if err != nil {
			b.handleExitLocked(err)
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(line) > maxReplySize {
			b.logger.Warn("bridge.reply_too_large", "bytes", len(line))
			continue
		}
		var resp hostResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			b.logger.Warn("bridge.invalid_reply", "error", err.Error())
			continue
		}
		if resp.ID != id {
			b.logger.Warn("bridge.stale_reply", "id", resp.ID, "want", id)
			continue
		}
		b.failures = 0
		if resp.Error != nil {
			return "", mapHostError(cmd.Action, resp.Error)
		}
		return replyText(resp.Result), nil
	}
}

// Close stops the helper process.
func (b *ExecBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.stopLocked()
	return nil
}

// Status reports the helper state for diagnostics.
func (b *ExecBridge) Status() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]any{
		"running":  b.cmd != nil,
		"disabled": b.disabled,
		"closed":   b.closed,
		"failures": b.failures,
	}
}

func (b *ExecBridge) ensureRunningLocked() error {
	if b.closed {
		return ErrUnavailable
	}
	if b.cmd != nil {
		return nil
	}
	if b.disabled {
		return fmt.Errorf("%w: helper failed %d times", ErrUnavailable, b.failures)
	}
	if len(b.argv) == 0 || strings.TrimSpace(b.argv[0]) == "" {
		return fmt.Errorf("%w: no host command configured", ErrUnavailable)
	}

	cmd := exec.Command(b.argv[0], b.argv[1:]...)
	cmd.Dir = b.dir
	cmd.Env = append(os.Environ(), b.env...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		b.failures++
		if b.failures >= maxRestartAttempts {
			b.disabled = true
		}
		b.logger.Error("bridge.start_failed", "command", b.argv[0], "error", err.Error())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b.cmd = cmd
	b.stdin = stdin
	b.reader = bufio.NewReaderSize(stdout, 64*1024)
	go b.drainStderr(stderr)
	b.logger.Info("bridge.started", "command", b.argv[0], "pid", cmd.Process.Pid)
	return nil
}

func (b *ExecBridge) handleExitLocked(cause error) {
	b.failures++
	if b.failures >= maxRestartAttempts {
		b.disabled = true
	}
	b.logger.Warn("bridge.helper_exited", "error", cause.Error(), "failures", b.failures, "disabled", b.disabled)
	b.stopLocked()
}

func (b *ExecBridge) stopLocked() {
	if b.stdin != nil {
		_ = b.stdin.Close()
	}
	if b.cmd != nil && b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
		_ = b.cmd.Wait()
	}
	b.cmd = nil
	b.stdin = nil
	b.reader = nil
}

func (b *ExecBridge) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		b.logger.Debug("bridge.helper_stderr", "line", scanner.Text())
	}
}

func mapHostError(action string, e *hostRPCError) error {
	herr := &HostError{Action: action, Message: e.Message}
	if code, ok := e.Data["error_code"].(string); ok {
		herr.Code = code
	}
	if herr.Message == "" {
		herr.Message = fmt.Sprintf("host error %d", e.Code)
	}
	return herr
}

func replyText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

// IsHostError reports whether err carries a host rejection.
func IsHostError(err error) bool {
	var herr *HostError
	return errors.As(err, &herr)
}
