package netstack

import (
	"bringup-go/errcode"
	"bringup-go/internal/heap"
)

// SlotBufSize is the per-direction buffer of one socket slot.
const SlotBufSize = 1536

type slotBuf struct {
	rx []byte
	tx []byte
}

// Resources is a fixed pool of socket slots whose buffers live in the
// heap arena. It carries no locks, so it can be promoted by value; the
// stack it is bound to does the locking.
type Resources struct {
	slots []slotBuf
	bound bool
}

// NewResources reserves n socket slots from alloc.
func NewResources(alloc heap.Allocator, n int) (Resources, error) {
	if n <= 0 {
		return Resources{}, &errcode.E{C: errcode.InvalidParams, Op: "netstack resources", Msg: "slot count must be positive"}
	}
	slots := make([]slotBuf, n)
	for i := range slots {
		rx, err := alloc.Alloc(SlotBufSize)
		if err != nil {
			return Resources{}, err
		}
		tx, err := alloc.Alloc(SlotBufSize)
		if err != nil {
			return Resources{}, err
		}
		slots[i] = slotBuf{rx: rx, tx: tx}
	}
	return Resources{slots: slots}, nil
}

// Len is the number of slots in the pool.
func (r *Resources) Len() int { return len(r.slots) }

// Bound reports whether a stack has taken the pool.
func (r *Resources) Bound() bool { return r.bound }
