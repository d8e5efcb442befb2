package keystream

import (
	"errors"
	"sync"
)

var (
	ErrEmptyKey      = errors.New("keystream: key is empty")
	ErrKeyTooLong    = errors.New("keystream: key longer than 256 bytes")
	ErrUninitialized = errors.New("keystream: engine not initialized")
)

const (
	// TableSize is the number of entries in the permutation table.
	TableSize = 256
	// MaxKeySize is the longest key the key schedule can consume.
	MaxKeySize = TableSize
)

// DefaultKey is the static key the device is seeded with.
// It is public and compiled in; output derived from it is predictable.
var DefaultKey = []byte("This is a test.")

// Engine is an RC4 keystream generator.
// The zero value is uninitialized; call Initialize before stepping it.
type Engine struct {
	mu    sync.Mutex
	table [TableSize]byte
	i, j  uint8
	steps uint64
	ready bool
}

// New creates an engine and runs the key schedule with key.
func New(key []byte) (*Engine, error) {
	e := &Engine{}
	if err := e.Initialize(key); err != nil {
		return nil, err
	}
	return e, nil
}

// Initialize runs the key schedule and resets both indices.
// The key is not retained.
func (e *Engine) Initialize(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > MaxKeySize {
		return ErrKeyTooLong
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for n := range e.table {
		e.table[n] = byte(n)
	}
	var j uint8
	for n := 0; n < TableSize; n++ {
		j += e.table[n] + key[n%len(key)]
		e.table[n], e.table[j] = e.table[j], e.table[n]
	}
	e.i, e.j = 0, 0
	e.steps = 0
	e.ready = true
	return nil
}

// Ready reports whether Initialize has completed.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// step advances the state once. Callers must hold e.mu.
func (e *Engine) step() byte {
	e.i++
	x := e.table[e.i]
	e.j += x
	y := e.table[e.j]
	e.table[e.i], e.table[e.j] = y, x
	e.steps++
	return e.table[x+y]
}

// NextByte advances the engine once and returns the next keystream byte.
// It panics if the engine has not been initialized.
func (e *Engine) NextByte() byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		panic(ErrUninitialized)
	}
	return e.step()
}

// Stepper steps an engine whose lock is already held by Do.
// It is only valid inside the Do callback it was passed to.
type Stepper struct {
	e *Engine
}

// NextByte advances the engine once without re-acquiring its lock.
func (s *Stepper) NextByte() byte { return s.e.step() }

// Do runs fn with exclusive access to the engine, so every byte fn draws
// is contiguous in the keystream. It returns fn's error.
func (e *Engine) Do(fn func(s *Stepper) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return ErrUninitialized
	}
	return fn(&Stepper{e: e})
}

// Read fills p with keystream bytes. It never returns an error once the
// engine is initialized.
func (e *Engine) Read(p []byte) (int, error) {
	err := e.Do(func(s *Stepper) error {
		for n := range p {
			p[n] = s.NextByte()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// XORKeyStream implements cipher.Stream.
// Dst and src must overlap entirely or not at all.
func (e *Engine) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("keystream: output smaller than input")
	}
	err := e.Do(func(s *Stepper) error {
		for n, v := range src {
			dst[n] = v ^ s.NextByte()
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// State is a copy of the engine's internal state.
type State struct {
	Table  [TableSize]byte
	IndexA uint8
	IndexB uint8
	Steps  uint64
}

// Snapshot returns a copy of the current state.
// WARNING: the table fully determines all future output.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Table:  e.table,
		IndexA: e.i,
		IndexB: e.j,
		Steps:  e.steps,
	}
}

// IsPermutation reports whether the table holds every byte value exactly once.
func (s State) IsPermutation() bool {
	var seen [TableSize]bool
	for _, v := range s.Table {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
