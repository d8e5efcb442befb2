package remote

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed = errors.New("remote: stream pool closed")
)

// StreamOpener is the interface for opening new streams.
type StreamOpener interface {
	OpenStreamSync(ctx context.Context) (io.ReadWriteCloser, error)
}

// streamPool keeps idle request streams open so consecutive reads skip the
// stream setup round trip. At most maxSize streams exist at once.
type streamPool struct {
	opener  StreamOpener
	maxSize int
	streams chan io.ReadWriteCloser
	mu      sync.Mutex
	closed  atomic.Bool
	created atomic.Int32
}

func newStreamPool(opener StreamOpener, maxSize int) *streamPool {
	if maxSize <= 0 {
		maxSize = 4
	}
	return &streamPool{
		opener:  opener,
		maxSize: maxSize,
		streams: make(chan io.ReadWriteCloser, maxSize),
	}
}

// acquire gets an idle stream or opens a new one, waiting for a release
// when the pool is at its limit.
func (p *streamPool) acquire(ctx context.Context) (io.ReadWriteCloser, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	select {
	case s, ok := <-p.streams:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	default:
	}

	p.mu.Lock()
	if int(p.created.Load()) < p.maxSize {
		p.created.Add(1)
		p.mu.Unlock()
		s, err := p.opener.OpenStreamSync(ctx)
		if err != nil {
			p.created.Add(-1)
			return nil, err
		}
		return s, nil
	}
	p.mu.Unlock()

	select {
	case s, ok := <-p.streams:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a healthy stream for reuse.
func (p *streamPool) release(s io.ReadWriteCloser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		_ = s.Close()
		p.created.Add(-1)
		return
	}
	select {
	case p.streams <- s:
	default:
		_ = s.Close()
		p.created.Add(-1)
	}
}

// discard closes a stream that failed mid-request and frees its slot.
func (p *streamPool) discard(s io.ReadWriteCloser) {
	_ = s.Close()
	p.created.Add(-1)
}

func (p *streamPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	close(p.streams)
	for s := range p.streams {
		_ = s.Close()
		p.created.Add(-1)
	}
	return nil
}

func (p *streamPool) idle() int { return len(p.streams) }

func (p *streamPool) open() int { return int(p.created.Load()) }
