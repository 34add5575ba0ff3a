package wifi

import (
	"context"

	"bringup-go/errcode"
)

// Device is the data plane: Ethernet frames in and out of the radio.
type Device struct{ l *link }

func (d Device) HardwareAddr() [6]byte { return d.l.radio.HardwareAddr() }
func (d Device) MTU() int              { return d.l.radio.MTU() }
func (d Device) LinkUp() bool          { return d.l.up.Load() }

// RxDrops counts frames lost to a full receive ring.
func (d Device) RxDrops() uint32 { return d.l.rxDrops.Load() }

// Transmit hands one frame to the radio.
func (d Device) Transmit(frame []byte) error {
	if !d.l.up.Load() {
		return &errcode.E{C: errcode.Busy, Op: "wifi tx", Msg: "link down"}
	}
	return d.l.radio.Transmit(frame)
}

// TryReceive copies the next queued frame into buf without blocking.
func (d Device) TryReceive(buf []byte) (int, bool, error) {
	return d.l.rx.ReadFrame(buf)
}

// Readable fires after a frame is queued. Drain with TryReceive until it
// reports nothing before waiting again.
func (d Device) Readable() <-chan struct{} { return d.l.rx.Readable() }

// Receive blocks until a frame is queued or ctx ends.
func (d Device) Receive(ctx context.Context, buf []byte) (int, error) {
	for {
		n, ok, err := d.TryReceive(buf)
		if ok {
			return n, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-d.Readable():
		}
	}
}
