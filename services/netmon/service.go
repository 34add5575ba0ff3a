package netmon

import (
	"context"
	"time"

	"bringup-go/bus"
	"bringup-go/internal/netstack"
	"bringup-go/x/logx"
	"bringup-go/x/mathx"

	"tinygo.org/x/drivers/netlink"
)

var (
	TopicConfig   = bus.T("config", "netmon")
	TopicLink     = bus.T("net", "link")
	TopicStats    = bus.T("net", "stats")
	TopicStatsGet = bus.T("net", "stats", "get")
)

const (
	DefaultInterval = 10 * time.Second
	minInterval     = 100 * time.Millisecond
	maxInterval     = time.Hour
)

// Link reports the network link state; *netstack.Stack satisfies it.
type Link interface{ IsLinkUp() bool }

// Counters reports stack statistics; *netstack.Runner satisfies it.
type Counters interface{ Stats() netstack.Stats }

// Service publishes the retained link state on net/link ("up"/"down") and
// periodic stack statistics on net/stats. The period is set by a
// {"interval": seconds} payload on config/netmon.
type Service struct {
	Link     Link
	Counters Counters
	Interval time.Duration

	// Notify, when set, subscribes to link events so changes are
	// published without waiting for the next tick.
	Notify func(func(netlink.Event))
}

func linkPayload(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// Run publishes until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	cfgSub := conn.Subscribe(TopicConfig)
	defer conn.Unsubscribe(cfgSub)
	getSub := conn.Subscribe(TopicStatsGet)
	defer conn.Unsubscribe(getSub)

	events := make(chan netlink.Event, 4)
	if s.Notify != nil {
		s.Notify(func(e netlink.Event) {
			select {
			case events <- e:
			default:
			}
		})
	}

	up := s.Link.IsLinkUp()
	conn.Publish(conn.NewMessage(TopicLink, linkPayload(up), true))

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("netmon stopping")
			return ctx.Err()
		case <-events:
		case <-tick.C:
			conn.Publish(conn.NewMessage(TopicStats, s.Counters.Stats(), false))
		case msg := <-getSub.Channel():
			conn.Reply(msg, s.Counters.Stats(), false)
		case msg := <-cfgSub.Channel():
			if iv, ok := intervalFrom(msg.Payload); ok {
				tick.Reset(iv)
				logx.Info("netmon interval set", "seconds", int(iv/time.Second))
			}
		}
		if now := s.Link.IsLinkUp(); now != up {
			up = now
			logx.Info("link state changed", "up", up)
			conn.Publish(conn.NewMessage(TopicLink, linkPayload(up), true))
		}
	}
}

func intervalFrom(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	var secs float64
	switch v := m["interval"].(type) {
	case float64:
		secs = v
	case int:
		secs = float64(v)
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return mathx.Clamp(time.Duration(secs*float64(time.Second)), minInterval, maxInterval), true
}

// Start runs the service in its own goroutine. An exit other than ctx
// ending is logged.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.Run(ctx, conn); err != nil && ctx.Err() == nil {
			logx.Error("netmon stopped", "err", err)
		}
	}()
}
