// Package netstack is the firmware's small network stack: a fixed pool of
// datagram sockets multiplexed over one Ethernet-framed driver, and the
// runner task that moves frames between them.
package netstack

import (
	"time"

	"bringup-go/errcode"
)

type Mode uint8

const (
	ModeNone Mode = iota
	ModeDHCPv4
)

func (m Mode) String() string {
	switch m {
	case ModeDHCPv4:
		return "dhcpv4"
	default:
		return "none"
	}
}

// DHCPConfig tunes the DHCPv4 client. Zero values take defaults.
type DHCPConfig struct {
	Hostname string
	Timeout  time.Duration
}

// Config is the stack's addressing configuration. DHCPv4 is the only
// supported mode.
type Config struct {
	Mode Mode
	DHCP DHCPConfig
}

const defaultDHCPTimeout = 10 * time.Second

func DHCPv4(d DHCPConfig) Config {
	if d.Timeout <= 0 {
		d.Timeout = defaultDHCPTimeout
	}
	return Config{Mode: ModeDHCPv4, DHCP: d}
}

func (c Config) validate() error {
	if c.Mode != ModeDHCPv4 {
		return &errcode.E{C: errcode.InvalidParams, Op: "netstack config", Msg: "unsupported mode " + c.Mode.String()}
	}
	return nil
}
