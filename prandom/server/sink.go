package server

import (
	"errors"
	"io"
)

var ErrSinkFull = errors.New("server: sink buffer exhausted")

// Sink accepts generated bytes one at a time. A non-nil error stops the
// request that is feeding it.
type Sink interface {
	WriteByte(c byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(c byte) error

func (f SinkFunc) WriteByte(c byte) error { return f(c) }

// BufferSink writes into a fixed destination slice and fails once it is full,
// the way a read into a short user buffer does.
type BufferSink struct {
	buf []byte
	n   int
}

// NewBufferSink returns a sink that fills dst from the start.
func NewBufferSink(dst []byte) *BufferSink {
	return &BufferSink{buf: dst}
}

func (b *BufferSink) WriteByte(c byte) error {
	if b.n >= len(b.buf) {
		return ErrSinkFull
	}
	b.buf[b.n] = c
	b.n++
	return nil
}

// Len returns the number of bytes written so far.
func (b *BufferSink) Len() int { return b.n }

// Bytes returns the written prefix of the destination.
func (b *BufferSink) Bytes() []byte { return b.buf[:b.n] }

// Remaining returns the free space left in the destination.
func (b *BufferSink) Remaining() int { return len(b.buf) - b.n }

// WriterSink hands each byte straight to an io.Writer, so a failing writer
// stops the request at the byte it rejected.
type WriterSink struct {
	w   io.Writer
	n   int
	one [1]byte
}

// NewWriterSink wraps w. Callers that want batching should buffer w
// themselves and flush after the request.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteByte(c byte) error {
	s.one[0] = c
	n, err := s.w.Write(s.one[:])
	if err != nil {
		return err
	}
	if n != 1 {
		return io.ErrShortWrite
	}
	s.n++
	return nil
}

// Len returns the number of bytes accepted by the writer.
func (s *WriterSink) Len() int { return s.n }
