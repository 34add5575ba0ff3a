package bringup

import (
	"errors"

	"bringup-go/internal/heap"
	"bringup-go/internal/netstack"
	"bringup-go/internal/periph"
	"bringup-go/internal/setups"
	"bringup-go/internal/wifi"
	"bringup-go/x/conv"
	"bringup-go/x/logx"
)

const netOwner = "net"

// stackPair keeps a stack and its runner in one cell.
type stackPair struct {
	stack  *netstack.Stack
	runner *netstack.Runner
}

// deriveSeed joins two 32-bit RNG draws, first draw high.
func deriveSeed(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

func deviceMsg(err error, generic string) string {
	if errors.Is(err, wifi.ErrNoDevice) {
		return "no wifi device available"
	}
	return generic
}

func buildNetwork(c *cells, p *periph.Peripherals, alloc heap.Allocator, plan setups.NetworkPlan) (*stackPair, wifi.Controller, error) {
	radioTG, err := p.ClaimTimerGroup(netOwner, plan.RadioTimer)
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "radio timer", err)
	}
	schedTG, err := p.ClaimTimerGroup(netOwner, plan.SchedulerTimer)
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "scheduler timer", err)
	}
	if err := schedTG.Timer0().Start(); err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "scheduler timer", err)
	}

	rng, err := p.ClaimRNG(netOwner)
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "rng", err)
	}
	hi, err := rng.Next()
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "rng", err)
	}
	lo, err := rng.Next()
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "rng", err)
	}
	seed := deriveSeed(hi, lo)

	clk, err := p.ClaimRadioClock(netOwner)
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "radio clock", err)
	}
	radio, err := p.ClaimRadio(netOwner)
	if err != nil {
		return nil, wifi.Controller{}, fail(KindPeripherals, "radio", err)
	}

	sub, err := c.wireless.InitWithErr(func() (wifi.Subsystem, error) {
		return wifi.Init(radioTG.Timer0(), rng, clk)
	})
	if err != nil {
		e := fail(KindWirelessInitFailed, "wifi init", err)
		e.Msg = deviceMsg(err, "failed to initialize wifi")
		return nil, wifi.Controller{}, e
	}

	dev, ctl, err := wifi.NewStation(sub, radio, alloc)
	if err != nil {
		e := fail(KindDeviceConstructionFailed, "wifi station", err)
		e.Msg = deviceMsg(err, "failed to create wifi device")
		return nil, wifi.Controller{}, e
	}
	devp := c.device.Uninit().Write(dev)

	res, err := c.sockets.InitWithErr(func() (netstack.Resources, error) {
		return netstack.NewResources(alloc, plan.Sockets)
	})
	if err != nil {
		return nil, wifi.Controller{}, fail(KindNetworkStack, "socket pool", err)
	}

	pair, err := c.stack.InitWithErr(func() (stackPair, error) {
		st, run, err := netstack.New(*devp, plan.Config, res, seed)
		return stackPair{stack: st, runner: run}, err
	})
	if err != nil {
		return nil, wifi.Controller{}, fail(KindNetworkStack, "stack", err)
	}

	mac := devp.HardwareAddr()
	logx.Info("network stack ready",
		"mac", string(conv.AppendMAC(nil, mac[:])),
		"radio_timer", radioTG.Number(),
		"scheduler_timer", schedTG.Number(),
		"mode", plan.Config.Mode.String(),
		"sockets", plan.Sockets)
	return pair, ctl, nil
}
