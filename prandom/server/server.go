package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheusHen/prandom/prandom/keystream"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("prandom/server")

var (
	ErrSinkFailure    = errors.New("server: sink rejected a byte")
	ErrNegativeLength = errors.New("server: negative request length")
	ErrUninitialized  = errors.New("server: keystream engine not initialized")
)

// SinkError reports a sink failure part way through a request.
// Unwrap returns the sink's own error unchanged.
type SinkError struct {
	Delivered int   // bytes accepted by the sink before it failed
	Err       error // the sink's error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("server: sink failed after %d bytes: %v", e.Delivered, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSinkFailure) true for every SinkError.
func (e *SinkError) Is(target error) bool { return target == ErrSinkFailure }

// Config controls how requests are serialized against the engine.
type Config struct {
	// Atomic holds the engine lock for a whole request so its bytes are
	// contiguous in the keystream. When false, the lock is taken per byte
	// and concurrent requests may interleave.
	Atomic bool
}

// DefaultConfig returns per-byte locking, the weakest ordering that keeps
// the engine state consistent.
func DefaultConfig() Config {
	return Config{Atomic: false}
}

// Server drains a shared keystream engine into caller supplied sinks.
type Server struct {
	engine *keystream.Engine
	config Config
}

// New creates a server for eng. The engine must be initialized before
// the first Fill.
func New(eng *keystream.Engine, config Config) *Server {
	return &Server{engine: eng, config: config}
}

// Engine returns the shared engine the server draws from.
func (s *Server) Engine() *keystream.Engine { return s.engine }

// Fill generates n bytes and delivers them to sink one at a time.
// It returns the number of bytes the sink accepted. On sink failure it stops
// at once and returns a *SinkError; the byte the sink rejected has already
// been drawn from the engine and is lost. ctx is checked between bytes.
func (s *Server) Fill(ctx context.Context, n int, sink Sink) (int, error) {
	if n < 0 {
		return 0, ErrNegativeLength
	}
	if s.engine == nil || !s.engine.Ready() {
		return 0, ErrUninitialized
	}
	if n == 0 {
		return 0, nil
	}

	var delivered int
	var err error
	if s.config.Atomic {
		err = s.engine.Do(func(st *keystream.Stepper) error {
			var ferr error
			delivered, ferr = fill(ctx, n, sink, st.NextByte)
			return ferr
		})
	} else {
		delivered, err = fill(ctx, n, sink, s.engine.NextByte)
	}

	var se *SinkError
	switch {
	case err == nil:
		log.Debugf("filled %d bytes", delivered)
	case errors.As(err, &se):
		log.Warningf("sink failed after %d of %d bytes: %v", se.Delivered, n, se.Err)
	default:
		log.Debugf("fill stopped after %d of %d bytes: %v", delivered, n, err)
	}
	return delivered, err
}

func fill(ctx context.Context, n int, sink Sink, next func() byte) (int, error) {
	for delivered := 0; delivered < n; delivered++ {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := sink.WriteByte(next()); err != nil {
			return delivered, &SinkError{Delivered: delivered, Err: err}
		}
	}
	return n, nil
}

// Read serves a request arriving on access point m. Every access point
// draws from the same engine with identical behavior.
func (s *Server) Read(ctx context.Context, m Minor, n int, sink Sink) (int, error) {
	if !m.Valid() {
		return 0, ErrUnknownMinor
	}
	log.Debugf("read %d bytes from %s", n, m)
	return s.Fill(ctx, n, sink)
}
