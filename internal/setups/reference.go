package setups

import (
	"bringup-go/internal/core"
	"bringup-go/internal/heap"
	"bringup-go/internal/netstack"
)

// Reference is the reference board wiring: AXP2101 on I2C0 (SCL 39,
// SDA 38), station-mode Wi-Fi with DHCPv4 and four sockets.
var Reference = Plan{
	HeapSize: heap.DefaultCapacity,
	CPUClock: core.CPUClockMax,
	PMU: PMUPlan{
		Bus: 0,
		SCL: 39,
		SDA: 38,
	},
	Network: NetworkPlan{
		RadioTimer:     0,
		SchedulerTimer: 1,
		Sockets:        4,
		Config:         netstack.DHCPv4(netstack.DHCPConfig{Hostname: "bringup"}),
	},
}

// Selected is the plan the firmware entry point uses.
var Selected = Reference
