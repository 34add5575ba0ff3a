package netstack

import (
	"context"

	"bringup-go/errcode"
)

// Socket is a datagram endpoint on one pool slot. It holds at most one
// queued outbound and one undelivered inbound datagram.
type Socket struct {
	st   *Stack
	idx  int
	gen  uint32
	port uint16
}

func (k *Socket) LocalPort() uint16 { return k.port }

// live returns the slot if k still owns it. Caller holds st.mu.
func (k *Socket) live() (*slotState, bool) {
	sl := &k.st.slots[k.idx]
	return sl, sl.open && sl.gen == k.gen
}

// Send broadcasts p to dstPort.
func (k *Socket) Send(dstPort uint16, p []byte) error {
	return k.SendTo(Broadcast, dstPort, p)
}

// SendTo queues p for the runner. It fails with errcode.Busy while the
// previous datagram is still queued.
func (k *Socket) SendTo(dst [6]byte, dstPort uint16, p []byte) error {
	st := k.st
	st.mu.Lock()
	sl, ok := k.live()
	if !ok {
		st.mu.Unlock()
		return ErrClosed
	}
	if sl.txLen > 0 {
		st.mu.Unlock()
		return &errcode.E{C: errcode.Busy, Op: "netstack send", Msg: "datagram pending"}
	}
	buf := st.res.slots[k.idx].tx
	if headerLen+len(p) > len(buf) {
		st.mu.Unlock()
		return &errcode.E{C: errcode.InvalidParams, Op: "netstack send", Msg: "datagram too large"}
	}
	header{dst: dst, src: st.drv.HardwareAddr(), dstPort: dstPort, srcPort: k.port}.put(buf)
	copy(buf[headerLen:], p)
	sl.txLen = headerLen + len(p)
	st.mu.Unlock()
	st.signalTx()
	return nil
}

// Recv waits for a datagram and copies it into buf, truncating to
// len(buf). It returns the payload length copied and the sender's port.
func (k *Socket) Recv(ctx context.Context, buf []byte) (int, uint16, error) {
	st := k.st
	for {
		st.mu.Lock()
		sl, ok := k.live()
		if !ok {
			st.mu.Unlock()
			return 0, 0, ErrClosed
		}
		if sl.rxLen >= 0 {
			n := copy(buf, st.res.slots[k.idx].rx[:sl.rxLen])
			from := sl.rxFrom
			sl.rxLen = -1
			st.mu.Unlock()
			return n, from, nil
		}
		ready := sl.rxReady
		st.mu.Unlock()

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-ready:
		}
	}
}

// Close returns the slot to the pool. Pending datagrams are discarded
// and a blocked Recv returns ErrClosed.
func (k *Socket) Close() error {
	st := k.st
	st.mu.Lock()
	sl, ok := k.live()
	if !ok {
		st.mu.Unlock()
		return ErrClosed
	}
	sl.open = false
	sl.gen++
	sl.txLen, sl.rxLen = 0, -1
	st.mu.Unlock()
	select {
	case sl.rxReady <- struct{}{}:
	default:
	}
	return nil
}
