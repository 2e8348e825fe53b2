package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// DefaultMaxFrameBytes bounds a single request line.
const DefaultMaxFrameBytes = 10 * 1024 * 1024

const readChunkSize = 64 * 1024

var (
	// ErrFrameTooLarge is returned when a line exceeds the frame bound. The
	// rest of the line is discarded.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrIncompleteFrame is returned when a partial line sees no further
	// bytes within the idle bound. The partial data is dropped, and so is
	// the rest of that line if it arrives later.
	ErrIncompleteFrame = errors.New("incomplete frame")
)

type chunk struct {
	data []byte
	err  error
}

// Framer splits a byte stream into newline-delimited frames.
//
// Input is read by a helper goroutine, one chunk per request from Next, so
// nothing is consumed from the stream while a request is being handled. The
// goroutine is what lets Next give up on an idle partial frame without
// abandoning the reader.
type Framer struct {
	r        io.Reader
	maxBytes int
	idle     time.Duration

	started  bool
	want     chan struct{}
	chunks   chan chunk
	inflight bool

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	pending    []byte
	discarding bool
	eof        bool
	readErr    error
}

// NewFramer returns a framer over r. maxBytes <= 0 selects
// DefaultMaxFrameBytes; idle <= 0 disables the idle bound.
func NewFramer(r io.Reader, maxBytes int, idle time.Duration) *Framer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	return &Framer{
		r:        r,
		maxBytes: maxBytes,
		idle:     idle,
		want:     make(chan struct{}, 1),
		chunks:   make(chan chunk, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Close stops the reader goroutine. A Read already blocked in the underlying
// reader cannot be interrupted; the goroutine exits as soon as it returns.
// Next returns io.EOF after Close. Close is called from the goroutine that
// calls Next.
func (f *Framer) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
		if !f.started {
			close(f.stopped)
		}
	})
}

// Next returns the next non-blank frame without its line terminator.
//
// It returns io.EOF once the stream is exhausted. Bytes left without a
// trailing newline at end of stream are returned as a final frame.
// ErrFrameTooLarge and ErrIncompleteFrame are recoverable: the caller reports
// them and calls Next again.
func (f *Framer) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return nil, io.EOF
	default:
	}
	f.start()
	for {
		frame, ok, err := f.take()
		if err != nil || ok {
			return frame, err
		}

		if f.eof {
			last := f.pending
			f.pending = nil
			if !f.discarding {
				if line := trimLine(last); len(line) > 0 {
					return append([]byte(nil), line...), nil
				}
			}
			f.discarding = false
			return nil, f.readErr
		}

		if !f.inflight {
			f.want <- struct{}{}
			f.inflight = true
		}

		var (
			timer   *time.Timer
			timeout <-chan time.Time
		)
		if f.idle > 0 && len(f.pending) > 0 {
			timer = time.NewTimer(f.idle)
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil, ctx.Err()
		case <-f.done:
			stopTimer(timer)
			return nil, io.EOF
		case c := <-f.chunks:
			stopTimer(timer)
			f.inflight = false
			f.pending = append(f.pending, c.data...)
			if c.err != nil {
				f.eof = true
				f.readErr = c.err
			}
		case <-timeout:
			f.pending = f.pending[:0]
			f.discarding = true
			return nil, ErrIncompleteFrame
		}
	}
}

func (f *Framer) start() {
	if f.started {
		return
	}
	f.started = true
	go f.readLoop()
}

func (f *Framer) readLoop() {
	defer close(f.stopped)
	for {
		select {
		case <-f.done:
			return
		case <-f.want:
		}
		buf := make([]byte, readChunkSize)
		n, err := f.r.Read(buf)
		select {
		case f.chunks <- chunk{data: buf[:n], err: err}:
		case <-f.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// take extracts one complete frame from the pending buffer.
func (f *Framer) take() ([]byte, bool, error) {
	for {
		if f.discarding {
			i := bytes.IndexByte(f.pending, '\n')
			if i < 0 {
				f.pending = f.pending[:0]
				return nil, false, nil
			}
			f.pending = f.pending[i+1:]
			f.discarding = false
		}

		i := bytes.IndexByte(f.pending, '\n')
		if i < 0 {
			if len(f.pending) > f.maxBytes {
				f.pending = f.pending[:0]
				f.discarding = true
				return nil, false, ErrFrameTooLarge
			}
			return nil, false, nil
		}

		line := f.pending[:i]
		f.pending = f.pending[i+1:]
		if len(line) > f.maxBytes {
			return nil, false, ErrFrameTooLarge
		}
		if line = trimLine(line); len(line) == 0 {
			continue
		}
		return append([]byte(nil), line...), true, nil
	}
}

func trimLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	return line
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
