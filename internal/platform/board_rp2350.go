// internal/platform/board_rp2350.go
//go:build rp2350

package platform

import (
	"errors"
	"io"
	"machine"
	"sync"
	"sync/atomic"

	"bringup-go/internal/core"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// -----------------------------------------------------------------------------
// Board
// -----------------------------------------------------------------------------

// rp2Board is the RP2350B (QFN-80, GP0..GP47). The radio is not part of the
// SoC; a radio backend registers itself through RegisterRadio.
type rp2Board struct {
	mu     sync.Mutex
	taken  bool
	timers [2]*rp2Timer
}

var errUnknownI2C = errors.New("i2c: unknown controller")

var (
	board = &rp2Board{timers: [2]*rp2Timer{{}, {}}}

	radioMu sync.Mutex
	radio   core.Radio
)

func Default() core.Board { return board }

// RegisterRadio installs the board's radio backend. It must be called from
// an init function, before bring-up; a second registration panics.
func RegisterRadio(r core.Radio) {
	radioMu.Lock()
	defer radioMu.Unlock()
	if radio != nil {
		panic("radio backend already registered")
	}
	radio = r
}

func (b *rp2Board) Name() string          { return "rp2350" }
func (b *rp2Board) GPIORange() (int, int) { return 0, 47 }

func (b *rp2Board) TakePeripherals() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.taken {
		return false
	}
	b.taken = true
	return true
}

// SetCPUClock accepts both settings: the TinyGo runtime already runs the
// core at its rated maximum.
func (b *rp2Board) SetCPUClock(core.CPUClock) error { return nil }

func (b *rp2Board) NewI2C(id int, cfg core.I2CConfig, scl, sda int) (drivers.I2C, error) {
	var hw *machine.I2C
	switch id {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, errUnknownI2C
	}
	sclPin, sdaPin := machine.Pin(scl), machine.Pin(sda)
	sclPin.Configure(machine.PinConfig{Mode: machine.PinI2C})
	sdaPin.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{
		Frequency: cfg.Frequency,
		SCL:       sclPin,
		SDA:       sdaPin,
	}); err != nil {
		return nil, err
	}
	return hw, nil
}

func (b *rp2Board) Timer(group int) (core.Timer, bool) {
	if group < 0 || group >= len(b.timers) {
		return nil, false
	}
	return b.timers[group], true
}

func (b *rp2Board) Entropy() (core.Entropy, bool) { return rp2Entropy{}, true }

func (b *rp2Board) Radio() (core.Radio, bool) {
	radioMu.Lock()
	defer radioMu.Unlock()
	return radio, radio != nil
}

// -----------------------------------------------------------------------------
// Timers and entropy
// -----------------------------------------------------------------------------

// rp2Timer stands for a timer group. The SoC timer already runs the TinyGo
// scheduler's monotonic clock, so Start only records the claim.
type rp2Timer struct {
	started atomic.Bool
}

func (t *rp2Timer) Start() error {
	t.started.Store(true)
	return nil
}

type rp2Entropy struct{}

func (rp2Entropy) Uint32() (uint32, error) { return machine.GetRNG() }

// -----------------------------------------------------------------------------
// Console
// -----------------------------------------------------------------------------

var consoleOnce sync.Once

// Console returns UART0 on GP0/GP1 at 115200 baud for log output.
func Console() io.Writer {
	consoleOnce.Do(func() {
		_ = uartx.UART0.Configure(uartx.UARTConfig{
			BaudRate: 115200,
			TX:       machine.UART0_TX_PIN,
			RX:       machine.UART0_RX_PIN,
		})
	})
	return uartx.UART0
}
