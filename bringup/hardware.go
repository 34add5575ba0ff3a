// Package bringup runs the one-time board bring-up: heap arena, logging,
// peripherals, the PMU and the Wi-Fi network stack.
//
// Init is the firmware entry point. It returns the long-lived resources in
// a Hardware value and aborts the process on any failure. The write-once
// cells backing those resources are private to this package.
package bringup

import (
	"bringup-go/drivers/axp2101"
	"bringup-go/errcode"
	"bringup-go/internal/boards"
	"bringup-go/internal/core"
	"bringup-go/internal/heap"
	"bringup-go/internal/netstack"
	"bringup-go/internal/periph"
	"bringup-go/internal/platform"
	"bringup-go/internal/setups"
	"bringup-go/internal/staticcell"
	"bringup-go/internal/wifi"
	"bringup-go/x/logx"
	"bringup-go/x/mathx"
)

// Hardware is what bring-up hands to the rest of the firmware. The runner
// must be driven by exactly one task; the controller has a single owner.
type Hardware struct {
	Stack      *netstack.Stack
	Runner     *netstack.Runner
	Controller wifi.Controller
	PMU        *axp2101.Device
}

type cells struct {
	arena    *staticcell.Cell[heap.Arena]
	wireless *staticcell.Cell[wifi.Subsystem]
	device   *staticcell.Cell[wifi.Device]
	sockets  *staticcell.Cell[netstack.Resources]
	stack    *staticcell.Cell[stackPair]
}

func newCells() *cells {
	return &cells{
		arena:    staticcell.New[heap.Arena]("heap arena"),
		wireless: staticcell.New[wifi.Subsystem]("wifi subsystem"),
		device:   staticcell.New[wifi.Device]("wifi device"),
		sockets:  staticcell.New[netstack.Resources]("socket pool"),
		stack:    staticcell.New[stackPair]("network stack"),
	}
}

var process = newCells()

// Init brings up the board the firmware was built for. It may be called
// once per process; a failure, or a second call, panics with an *Error.
func Init() Hardware {
	hw, err := build(process, platform.Default(), setups.Selected)
	if err != nil {
		logx.Error("bring-up failed", "err", err)
		logx.Sync()
		panic(err)
	}
	return hw
}

// Build runs the bring-up sequence against board with its own cells.
// The simulator and tests use it; firmware calls Init.
func Build(board core.Board, plan setups.Plan) (Hardware, error) {
	return build(newCells(), board, plan)
}

func build(c *cells, board core.Board, plan setups.Plan) (Hardware, error) {
	arena, err := c.arena.InitWithErr(func() (heap.Arena, error) { return heap.Arena{}, nil })
	if err != nil {
		return Hardware{}, fail(KindHeap, "heap", err)
	}
	if err := arena.Init(plan.HeapSize); err != nil {
		return Hardware{}, fail(KindHeap, "heap", err)
	}

	if err := logx.Init(arena, logx.LevelFromEnv(), platform.Console()); err != nil {
		// Logging belongs to the process, not the board: a simulator
		// building several boards configures it once.
		if errcode.Of(err) != errcode.AlreadyInitialized {
			return Hardware{}, &Error{Kind: KindLogging, Op: "logging", Err: err}
		}
	}
	logx.Info("bring-up start", "board", board.Name(), "heap", plan.HeapSize)

	if err := plan.Validate(boards.Describe(board)); err != nil {
		return Hardware{}, &Error{Kind: KindPeripherals, Op: "setup", Err: err}
	}
	p, err := periph.Init(board, periph.Config{CPUClock: plan.CPUClock})
	if err != nil {
		return Hardware{}, fail(KindPeripherals, "peripherals", err)
	}

	pmu, err := buildPMU(p, plan.PMU)
	if err != nil {
		return Hardware{}, err
	}

	pair, ctl, err := buildNetwork(c, p, arena, plan.Network)
	if err != nil {
		return Hardware{}, err
	}

	logx.Info("bring-up complete", "heap_kib", mathx.CeilDiv(arena.Len(), 1024), "heap_allocs", arena.Allocs())
	return Hardware{
		Stack:      pair.stack,
		Runner:     pair.runner,
		Controller: ctl,
		PMU:        pmu,
	}, nil
}
