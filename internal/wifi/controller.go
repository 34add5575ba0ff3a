package wifi

import (
	"bringup-go/errcode"
	"bringup-go/internal/core"
	"bringup-go/x/logx"

	"tinygo.org/x/drivers/netlink"
)

// Controller is the control plane: start, scan, association.
type Controller struct{ l *link }

// Start switches the radio into station mode. Starting twice is a no-op.
func (c Controller) Start() error {
	if c.l.started.Load() {
		return nil
	}
	if err := c.l.radio.StartStation(); err != nil {
		return errcode.Wrap(errcode.Error, "wifi start", err)
	}
	c.l.started.Store(true)
	return nil
}

func (c Controller) IsConnected() bool { return c.l.up.Load() }

func (c Controller) Scan() ([]core.AccessPoint, error) {
	if !c.l.started.Load() {
		return nil, &errcode.E{C: errcode.NotInitialized, Op: "wifi scan", Msg: "controller not started"}
	}
	return c.l.radio.Scan()
}

// Connect associates with the access point in p. Only station mode is
// supported. The association itself is run by the radio firmware.
func (c Controller) Connect(p *netlink.ConnectParams) error {
	if !c.l.started.Load() {
		return &errcode.E{C: errcode.NotInitialized, Op: "wifi connect", Msg: "controller not started"}
	}
	switch {
	case p.ConnectMode != netlink.ConnectModeSTA:
		return netlink.ErrConnectModeNoGood
	case p.Ssid == "":
		return netlink.ErrMissingSSID
	case p.Passphrase != "" && len(p.Passphrase) < 8:
		return netlink.ErrShortPassphrase
	}
	if err := c.l.radio.Associate(p.Ssid, p.Passphrase); err != nil {
		logx.Warn("wifi association failed", "ssid", p.Ssid, "err", err)
		return err
	}
	logx.Info("wifi associated", "ssid", p.Ssid)
	return nil
}

func (c Controller) Disconnect() error { return c.l.radio.Disassociate() }

// Notify registers cb for link up/down events.
func (c Controller) Notify(cb func(netlink.Event)) {
	c.l.mu.Lock()
	c.l.watchers = append(c.l.watchers, cb)
	c.l.mu.Unlock()
}

// Pairs reports whether d is the data plane paired with c.
func (c Controller) Pairs(d Device) bool { return c.l != nil && c.l == d.l }
