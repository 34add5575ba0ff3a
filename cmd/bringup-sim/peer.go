//go:build !rp2350

package main

import (
	"context"
	"time"

	"bringup-go/internal/netstack"
	"bringup-go/internal/platform"
)

// echoPeer answers every datagram the station sends to port by injecting
// the same payload back over the simulated air.
type echoPeer struct {
	radio *platform.SimRadio
	mac   [6]byte
	port  uint16
	seen  int
}

var peerMAC = [6]byte{0x02, 0x00, 0x5e, 0x00, 0x00, 0xfe}

func (p *echoPeer) run(ctx context.Context) error {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			p.poll()
		}
	}
}

func (p *echoPeer) poll() {
	sent := p.radio.Sent()
	for _, f := range sent[p.seen:] {
		dstPort, srcPort, payload, ok := netstack.ParseFrame(f)
		if !ok || dstPort != p.port {
			continue
		}
		p.radio.Inject(netstack.AppendFrame(nil, p.mac, peerMAC, srcPort, p.port, payload))
	}
	p.seen = len(sent)
}
