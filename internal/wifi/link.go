package wifi

import (
	"slices"
	"sync"
	"sync/atomic"

	"bringup-go/internal/core"
	"bringup-go/x/shmring"

	"tinygo.org/x/drivers/netlink"
)

// link is the radio state shared by a Device and its Controller.
type link struct {
	radio core.Radio
	rx    *shmring.Ring

	up      atomic.Bool
	started atomic.Bool
	rxDrops atomic.Uint32

	mu       sync.Mutex
	watchers []func(netlink.Event)
}

// onFrame runs in the radio's receive context.
func (l *link) onFrame(frame []byte) {
	if ok, _ := l.rx.WriteFrame(frame); !ok {
		l.rxDrops.Add(1)
	}
}

func (l *link) onLink(up bool) {
	if l.up.Swap(up) == up {
		return
	}
	ev := netlink.EventNetDown
	if up {
		ev = netlink.EventNetUp
	}
	l.mu.Lock()
	ws := slices.Clone(l.watchers)
	l.mu.Unlock()
	for _, w := range ws {
		w(ev)
	}
}
