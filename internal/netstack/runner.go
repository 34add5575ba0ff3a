package netstack

import (
	"context"
	"sync/atomic"

	"bringup-go/errcode"
	"bringup-go/x/logx"
)

// Runner moves frames between the driver and the socket pool. It is
// meant to run as its own task for the life of the firmware.
type Runner struct {
	st      *Stack
	running atomic.Bool
	scratch []byte // inbound frame
	txBuf   []byte // outbound frame being transmitted
}

func (r *Runner) Driver() Driver { return r.st.drv }

func (r *Runner) Stats() Stats {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.stats
}

// Run services the stack until ctx ends. Only one Run may be active.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return &errcode.E{C: errcode.Busy, Op: "netstack run", Msg: "runner already running"}
	}
	defer r.running.Store(false)
	logx.Debug("netstack runner started", "slots", r.st.Capacity(), "mode", r.st.cfg.Mode.String())

	readable := r.st.drv.Readable()
	for {
		r.flush()
		r.drain()
		select {
		case <-ctx.Done():
			logx.Debug("netstack runner stopping")
			return ctx.Err()
		case <-r.st.txReady:
		case <-readable:
		}
	}
}

// flush transmits every queued datagram. Each frame is copied out of its
// slot under the lock, so the slot is free for the next Send (or a new
// socket) while the driver still holds the copy.
func (r *Runner) flush() {
	st := r.st
	for i := range st.slots {
		st.mu.Lock()
		sl := &st.slots[i]
		n, port := sl.txLen, sl.port
		if n > 0 {
			copy(r.txBuf, st.res.slots[i].tx[:n])
			sl.txLen = 0
		}
		st.mu.Unlock()
		if n == 0 {
			continue
		}

		err := st.drv.Transmit(r.txBuf[:n])

		st.mu.Lock()
		if err != nil {
			st.stats.TxErrors++
		} else {
			st.stats.TxFrames++
		}
		st.mu.Unlock()
		if err != nil {
			logx.Debug("netstack tx failed", "port", port, "err", err)
		}
	}
}

// drain delivers every queued inbound frame.
func (r *Runner) drain() {
	st := r.st
	for {
		n, ok, err := st.drv.TryReceive(r.scratch)
		if !ok {
			return
		}
		st.mu.Lock()
		if err != nil {
			st.stats.RxDropped++
			st.mu.Unlock()
			continue
		}
		st.stats.RxFrames++
		r.deliver(r.scratch[:n])
		st.mu.Unlock()
	}
}

// deliver hands one frame to its socket. Caller holds st.mu.
func (r *Runner) deliver(frame []byte) {
	st := r.st
	h, ok := parseHeader(frame)
	if !ok || (h.dst != Broadcast && h.dst != st.drv.HardwareAddr()) {
		st.stats.RxUnhandled++
		return
	}
	i := st.slotByPort(h.dstPort)
	if i < 0 {
		st.stats.RxUnhandled++
		return
	}
	sl := &st.slots[i]
	if sl.rxLen >= 0 {
		st.stats.RxDropped++
		return
	}
	sl.rxLen = copy(st.res.slots[i].rx, frame[headerLen:])
	sl.rxFrom = h.srcPort
	select {
	case sl.rxReady <- struct{}{}:
	default:
	}
}
