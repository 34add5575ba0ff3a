// Package periph hands out the board's peripherals exactly once.
//
// Init consumes the board's peripherals token. Every handle is then claimed
// by name by the builder that uses it, and a claimed resource cannot be
// claimed again: there is no release, the bring-up owns them for good.
package periph

import (
	"strconv"
	"sync"

	"bringup-go/errcode"
	"bringup-go/internal/core"

	"tinygo.org/x/drivers"
)

// ResourceID names one peripheral, e.g. "i2c0", "gpio38", "timg1".
type ResourceID string

const (
	RNGID        ResourceID = "rng"
	RadioID      ResourceID = "wifi"
	RadioClockID ResourceID = "radio_clk"
)

func I2CID(n int) ResourceID        { return ResourceID("i2c" + strconv.Itoa(n)) }
func PinID(n int) ResourceID        { return ResourceID("gpio" + strconv.Itoa(n)) }
func TimerGroupID(n int) ResourceID { return ResourceID("timg" + strconv.Itoa(n)) }

// Config selects operating parameters applied by Init.
type Config struct {
	CPUClock core.CPUClock
}

// DefaultConfig runs the CPU at its maximum frequency.
func DefaultConfig() Config { return Config{CPUClock: core.CPUClockMax} }

// Peripherals is the registry returned by Init.
type Peripherals struct {
	mu     sync.Mutex
	board  core.Board
	owners map[ResourceID]string
}

// Init consumes the board's peripherals token and applies cfg. A board
// yields its peripherals once; later calls fail with
// errcode.AlreadyInitialized.
func Init(board core.Board, cfg Config) (*Peripherals, error) {
	if !board.TakePeripherals() {
		return nil, &errcode.E{C: errcode.AlreadyInitialized, Op: "peripherals", Msg: board.Name()}
	}
	if err := board.SetCPUClock(cfg.CPUClock); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "cpu clock "+cfg.CPUClock.String(), err)
	}
	return &Peripherals{
		board:  board,
		owners: make(map[ResourceID]string),
	}, nil
}

// Board returns the board the registry was taken from.
func (p *Peripherals) Board() core.Board { return p.board }

// Owner reports who claimed id.
func (p *Peripherals) Owner(id ResourceID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.owners[id]
	return o, ok
}

// claim records owner for id; caller supplies the in-use code.
func (p *Peripherals) claim(owner string, id ResourceID, inUse errcode.Code) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, taken := p.owners[id]; taken {
		return &errcode.E{C: inUse, Op: "claim " + string(id), Msg: "owned by " + cur}
	}
	p.owners[id] = owner
	return nil
}

// ---- I²C ----

// I2C is an unconfigured I²C controller.
type I2C struct {
	id    int
	board core.Board
	built bool
}

func (p *Peripherals) ClaimI2C(owner string, id int) (*I2C, error) {
	if id < 0 || id > 1 {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "claim " + string(I2CID(id))}
	}
	if err := p.claim(owner, I2CID(id), errcode.BusInUse); err != nil {
		return nil, err
	}
	return &I2C{id: id, board: p.board}, nil
}

func (h *I2C) ID() int { return h.id }

// NewBlocking configures the controller on scl/sda and returns the
// blocking bus. A controller is configured once.
func (h *I2C) NewBlocking(cfg core.I2CConfig, scl, sda *Pin) (drivers.I2C, error) {
	if h.built {
		return nil, &errcode.E{C: errcode.BusInUse, Op: "i2c" + strconv.Itoa(h.id), Msg: "already configured"}
	}
	if scl == nil || sda == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "i2c" + strconv.Itoa(h.id), Msg: "missing pin"}
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = core.DefaultI2CFrequency
	}
	bus, err := h.board.NewI2C(h.id, cfg, scl.n, sda.n)
	if err != nil {
		return nil, err
	}
	h.built = true
	return bus, nil
}

// ---- GPIO ----

type Pin struct{ n int }

func (p *Peripherals) ClaimPin(owner string, n int) (*Pin, error) {
	min, max := p.board.GPIORange()
	if n < min || n > max {
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "claim " + string(PinID(n))}
	}
	if err := p.claim(owner, PinID(n), errcode.PinInUse); err != nil {
		return nil, err
	}
	return &Pin{n: n}, nil
}

func (p *Pin) Number() int { return p.n }

// ---- Timers ----

type TimerGroup struct {
	n      int
	timer0 core.Timer
}

func (p *Peripherals) ClaimTimerGroup(owner string, n int) (*TimerGroup, error) {
	t, ok := p.board.Timer(n)
	if !ok {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "claim " + string(TimerGroupID(n))}
	}
	if err := p.claim(owner, TimerGroupID(n), errcode.InUse); err != nil {
		return nil, err
	}
	return &TimerGroup{n: n, timer0: t}, nil
}

func (g *TimerGroup) Number() int        { return g.n }
func (g *TimerGroup) Timer0() core.Timer { return g.timer0 }

// ---- RNG ----

type RNG struct{ src core.Entropy }

func (p *Peripherals) ClaimRNG(owner string) (*RNG, error) {
	src, ok := p.board.Entropy()
	if !ok {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "claim rng"}
	}
	if err := p.claim(owner, RNGID, errcode.InUse); err != nil {
		return nil, err
	}
	return &RNG{src: src}, nil
}

// Next draws 32 bits from the hardware source.
func (r *RNG) Next() (uint32, error) { return r.src.Uint32() }

// Entropy exposes the source to the radio firmware.
func (r *RNG) Entropy() core.Entropy { return r.src }

// ---- Radio ----

// Radio is the Wi-Fi block. radio is nil on boards without one; the
// handle is still claimable so the Wi-Fi builder can report the absence.
type Radio struct{ radio core.Radio }

func (p *Peripherals) ClaimRadio(owner string) (*Radio, error) {
	if err := p.claim(owner, RadioID, errcode.InUse); err != nil {
		return nil, err
	}
	r, _ := p.board.Radio()
	return &Radio{radio: r}, nil
}

// Hardware returns the radio firmware interface, if the board has one.
func (r *Radio) Hardware() (core.Radio, bool) { return r.radio, r.radio != nil }

// RadioClock gates the radio's clock domain, which the radio firmware
// needs to boot. It refers to the same radio as the Radio handle.
type RadioClock struct{ radio core.Radio }

func (p *Peripherals) ClaimRadioClock(owner string) (*RadioClock, error) {
	if err := p.claim(owner, RadioClockID, errcode.InUse); err != nil {
		return nil, err
	}
	r, _ := p.board.Radio()
	return &RadioClock{radio: r}, nil
}

// Firmware returns the radio firmware clocked by this domain.
func (c *RadioClock) Firmware() (core.Radio, bool) { return c.radio, c.radio != nil }
