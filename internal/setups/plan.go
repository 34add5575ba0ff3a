// Package setups holds the wiring and operating parameters of a board
// setup. Values are fixed at build time.
package setups

import (
	"strconv"

	"bringup-go/errcode"
	"bringup-go/internal/boards"
	"bringup-go/internal/core"
	"bringup-go/internal/netstack"
)

// Plan specifies wiring and operating parameters chosen by a setup.
type Plan struct {
	HeapSize int
	CPUClock core.CPUClock

	PMU     PMUPlan
	Network NetworkPlan
}

// PMUPlan wires the PMU bus. The AXP2101 answers on its fixed address
// whatever the wiring.
type PMUPlan struct {
	Bus int    // I²C controller id
	SCL int    // GPIO number
	SDA int    // GPIO number
	Hz  uint32 // 0 => core.DefaultI2CFrequency
}

type NetworkPlan struct {
	RadioTimer     int // timer group driving the radio
	SchedulerTimer int // timer group for the task scheduler
	Sockets        int
	Config         netstack.Config
}

// Validate checks the plan against what b provides.
func (p Plan) Validate(b boards.Board) error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "setup " + b.Name, Msg: msg}
	}
	switch {
	case p.HeapSize <= 0:
		return bad("heap size must be positive")
	case p.PMU.Bus < 0 || p.PMU.Bus >= b.I2C:
		return bad("pmu bus i2c" + strconv.Itoa(p.PMU.Bus) + " not on board")
	case !b.HasPin(p.PMU.SCL) || !b.HasPin(p.PMU.SDA):
		return bad("pmu pins outside gpio range")
	case p.PMU.SCL == p.PMU.SDA:
		return bad("pmu scl and sda share a pin")
	case p.Network.RadioTimer == p.Network.SchedulerTimer:
		return bad("radio and scheduler share a timer group")
	case p.Network.RadioTimer >= b.TimerGroups || p.Network.SchedulerTimer >= b.TimerGroups:
		return bad("timer group not on board")
	case p.Network.Sockets <= 0:
		return bad("socket count must be positive")
	}
	return nil
}
