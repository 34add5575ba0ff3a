// Package heap implements the fixed-budget arena that backs every
// allocation made during and after bring-up.
//
// The arena is sized once. Allocations are bump-pointer, 8-byte aligned and
// never returned: the board has no shutdown path, so nothing is released.
package heap

import (
	"sync"

	"bringup-go/errcode"
	"bringup-go/x/mathx"
)

// DefaultCapacity covers the worst-case concurrent needs of the network
// stack, the Wi-Fi rings and the logger.
const DefaultCapacity = 72 * 1024

const align = 8

// Allocator is what allocation-dependent components accept.
type Allocator interface {
	Alloc(n int) ([]byte, error)
}

var _ Allocator = (*Arena)(nil)

// Arena is a contiguous region of fixed capacity.
type Arena struct {
	mu     sync.Mutex
	buf    []byte
	off    int
	allocs int
	ready  bool
}

// Init reserves capacity bytes. It must run exactly once, before the first
// Alloc; a second call returns errcode.AlreadyInitialized.
func (a *Arena) Init(capacity int) error {
	if capacity <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "heap init", Msg: "capacity must be positive"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return &errcode.E{C: errcode.AlreadyInitialized, Op: "heap init"}
	}
	a.buf = make([]byte, mathx.AlignUp(capacity, align))
	a.ready = true
	return nil
}

// Alloc returns n zeroed bytes. The slice capacity is clipped to n so an
// append cannot spill into a neighbour.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "heap alloc"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		return nil, errcode.HeapNotReady
	}
	start := a.off
	if n > len(a.buf)-start {
		return nil, errcode.HeapExhausted
	}
	end := start + mathx.AlignUp(n, align)
	a.off = end
	a.allocs++
	return a.buf[start : start+n : start+n], nil
}

// Len returns the bytes handed out so far, including alignment padding.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.off
}

// Cap returns the arena capacity; zero before Init.
func (a *Arena) Cap() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Allocs returns the number of successful allocations.
func (a *Arena) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Ready reports whether Init has run.
func (a *Arena) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}
