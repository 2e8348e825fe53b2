package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ironsheep/layout-tools-mcp/internal/journal"
	"github.com/ironsheep/layout-tools-mcp/internal/logging"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/session"
	"github.com/ironsheep/layout-tools-mcp/internal/telemetry"
)

// idWindow is how many recent request ids are checked for repeats.
const idWindow = 64

// Journal records completed tool calls.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Server handles MCP protocol communication for one session.
type Server struct {
	registry    *registry.Registry
	session     *session.Session
	logger      *slog.Logger
	instruments *telemetry.Instruments
	journal     Journal

	maxFrameBytes int
	idleTimeout   time.Duration
	name          string
	version       string

	recentIDs [idWindow]string
	nextID    int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInstruments sets the tracing and metrics instruments.
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(s *Server) {
		if inst != nil {
			s.instruments = inst
		}
	}
}

// WithJournal records every tool call in j.
func WithJournal(j Journal) Option {
	return func(s *Server) { s.journal = j }
}

// WithMaxFrameBytes bounds a single request line.
func WithMaxFrameBytes(n int) Option {
	return func(s *Server) { s.maxFrameBytes = n }
}

// WithIdleTimeout bounds how long a partial request line may stall.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithServerInfo sets the name and version announced by initialize.
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// New creates a server over reg. The session starts with no document open.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry:      reg,
		session:       session.New(),
		logger:        logging.Nop(),
		instruments:   telemetry.Nop(),
		maxFrameBytes: DefaultMaxFrameBytes,
		name:          "layout-tools-mcp",
		version:       "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the session served by s.
func (s *Server) Session() *session.Session {
	return s.session
}

// Run serves stdin and stdout until EOF or until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads requests from r and writes one response line per request to w.
//
// Requests are handled strictly one at a time: the next frame is not read
// until the current response has been flushed. Serve returns nil at end of
// input or when ctx is cancelled, and an error only when r or w fail.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	framer := NewFramer(r, s.maxFrameBytes, s.idleTimeout)
	defer framer.Close()
	out := bufio.NewWriter(w)

	s.logger.Info("server.started", "tools", s.registry.Len(), "max_frame_bytes", s.maxFrameBytes, "idle_timeout", s.idleTimeout.String())
	defer s.logger.Info("server.stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		frame, err := framer.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrFrameTooLarge), errors.Is(err, ErrIncompleteFrame):
			s.logger.Warn("rpc.frame_error", "error", err)
			resp := s.reject(ctx, nil, "", ProtocolFault(CodeParseError, err.Error(), nil), time.Now())
			if err := s.write(out, resp); err != nil {
				return err
			}
			continue
		case err != nil:
			return fmt.Errorf("read request: %w", err)
		}

		resp, ok := s.Handle(ctx, frame)
		if !ok {
			continue
		}
		if err := s.write(out, resp); err != nil {
			return err
		}
	}
}

func (s *Server) write(out *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// Results are built from JSON-safe values; this is a programming error.
		s.logger.Error("rpc.encode_failed", "id", string(resp.ID), "error", err)
		data, _ = json.Marshal(ProtocolFault(CodeInternalError, "internal error", nil).Response(resp.ID))
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}
