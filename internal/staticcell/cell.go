// Package staticcell provides write-once storage for values that must live
// for the rest of the process.
//
// A Cell starts empty. The first InitWith (or Uninit followed by a Write)
// claims it; any later attempt to claim it panics. Reading an empty cell
// panics too. Both are programming errors: the caller relies on holding the
// only instance.
package staticcell

import (
	"sync/atomic"

	"bringup-go/errcode"
)

const (
	stateEmpty uint32 = iota
	stateClaimed
	stateReady
)

// Cell holds zero or one value of type T. The zero value is an empty,
// unnamed cell.
type Cell[T any] struct {
	name  string
	state atomic.Uint32
	val   T
}

// New returns an empty cell named for diagnostics.
func New[T any](name string) *Cell[T] {
	return &Cell[T]{name: name}
}

// Name returns the diagnostic name, or "cell" when unnamed.
func (c *Cell[T]) Name() string {
	if c.name == "" {
		return "cell"
	}
	return c.name
}

func (c *Cell[T]) claim() bool {
	return c.state.CompareAndSwap(stateEmpty, stateClaimed)
}

func (c *Cell[T]) alreadyInit() {
	panic("staticcell: " + c.Name() + " already initialized")
}

// InitWith runs f, stores its result and returns a pointer to the stored
// value. It panics if the cell has been claimed before.
func (c *Cell[T]) InitWith(f func() T) *T {
	if !c.claim() {
		c.alreadyInit()
	}
	c.val = f()
	c.state.Store(stateReady)
	return &c.val
}

// Init stores v. It panics if the cell has been claimed before.
func (c *Cell[T]) Init(v T) *T {
	return c.InitWith(func() T { return v })
}

// InitWithErr is InitWith for factories that can fail. A claimed cell
// yields errcode.AlreadyInitialized rather than a panic. When f fails the
// cell stays claimed and unreadable.
func (c *Cell[T]) InitWithErr(f func() (T, error)) (*T, error) {
	if !c.claim() {
		return nil, &errcode.E{C: errcode.AlreadyInitialized, Op: c.Name()}
	}
	v, err := f()
	if err != nil {
		return nil, err
	}
	c.val = v
	c.state.Store(stateReady)
	return &c.val, nil
}

// Uninit claims the cell without a value. The returned slot must be
// written exactly once; until then the cell reads as uninitialised.
func (c *Cell[T]) Uninit() *Slot[T] {
	if !c.claim() {
		c.alreadyInit()
	}
	return &Slot[T]{c: c}
}

// Get returns the stored value. It panics if the cell is not initialised.
func (c *Cell[T]) Get() *T {
	if c.state.Load() != stateReady {
		panic("staticcell: " + c.Name() + " read before initialization")
	}
	return &c.val
}

// TryGet returns the stored value and whether the cell is initialised.
func (c *Cell[T]) TryGet() (*T, bool) {
	if c.state.Load() != stateReady {
		return nil, false
	}
	return &c.val, true
}

func (c *Cell[T]) IsInitialized() bool { return c.state.Load() == stateReady }

// Slot is reserved storage in a claimed Cell.
type Slot[T any] struct {
	c       *Cell[T]
	written atomic.Bool
}

// Write stores v in the reserved cell and returns a pointer to it.
// A second Write panics.
func (s *Slot[T]) Write(v T) *T {
	if !s.written.CompareAndSwap(false, true) {
		panic("staticcell: " + s.c.Name() + " slot written twice")
	}
	s.c.val = v
	s.c.state.Store(stateReady)
	return &s.c.val
}
