// Package shmring is a single-producer, single-consumer ring of
// length-prefixed frames over caller-supplied storage.
//
// The producer may run in interrupt context: no method blocks or allocates.
package shmring

import (
	"errors"
	"sync/atomic"

	"bringup-go/x/mathx"
)

// frameHdr is the length prefix written before each frame.
const frameHdr = 2

var (
	ErrShortBuffer = errors.New("shmring: frame larger than buffer")
	ErrFrameSize   = errors.New("shmring: frame too large for ring")
)

// Ring is a single-producer, single-consumer frame ring.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{}
}

// New builds a ring over buf, whose length must be a power of two >= 2.
// The ring owns buf from here on.
func New(buf []byte) *Ring {
	size := len(buf)
	if size < 2 || !mathx.IsPow2(size) {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      buf,
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// used is the number of queued bytes, prefixes included.
func (r *Ring) used() int { return int(r.wr.Load() - r.rd.Load()) }

// Producer side

// copyIn writes src at logical index at without publishing it.
func (r *Ring) copyIn(at uint32, src []byte) {
	idx := at & r.mask
	first := copy(r.buf[idx:], src)
	copy(r.buf, src[first:])
}

// WriteFrame stores p with its length prefix, all or nothing. It returns
// false when the ring lacks space; the caller counts the drop.
//
// Every stored frame signals Readable. The signal coalesces while the
// consumer is busy, so a reader that drains until ReadFrame reports no
// frame never sleeps on a non-empty ring.
func (r *Ring) WriteFrame(p []byte) (bool, error) {
	if len(p) > 0xFFFF || len(p)+frameHdr > len(r.buf) {
		return false, ErrFrameSize
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	if int(r.size()-(wr-rd)) < len(p)+frameHdr {
		return false, nil
	}
	hdr := [frameHdr]byte{byte(len(p)), byte(len(p) >> 8)}
	r.copyIn(wr, hdr[:])
	r.copyIn(wr+frameHdr, p)
	r.wr.Store(wr + uint32(len(p)+frameHdr)) // release
	select {
	case r.readable <- struct{}{}:
	default:
	}
	return true, nil
}

// Consumer side

// copyOut reads len(dst) bytes at logical index at without consuming them.
func (r *Ring) copyOut(at uint32, dst []byte) {
	idx := at & r.mask
	first := copy(dst, r.buf[idx:])
	copy(dst[first:], r.buf)
}

// ReadFrame copies the next frame into dst. ok is false when no frame is
// queued. A frame longer than dst is discarded and ErrShortBuffer returned.
func (r *Ring) ReadFrame(dst []byte) (n int, ok bool, err error) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr-rd < frameHdr {
		return 0, false, nil
	}
	var hdr [frameHdr]byte
	r.copyOut(rd, hdr[:])
	n = int(hdr[0]) | int(hdr[1])<<8
	if n > len(dst) {
		r.rd.Store(rd + uint32(n+frameHdr))
		return 0, true, ErrShortBuffer
	}
	r.copyOut(rd+frameHdr, dst[:n])
	r.rd.Store(rd + uint32(n+frameHdr)) // release
	return n, true, nil
}

// Readable fires after a frame is stored. One pending signal may stand
// for several frames.
func (r *Ring) Readable() <-chan struct{} { return r.readable }
