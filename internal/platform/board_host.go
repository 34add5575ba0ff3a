// internal/platform/board_host.go
//go:build !rp2350

package platform

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"bringup-go/internal/core"

	"tinygo.org/x/drivers"
)

var (
	ErrNACK        = errors.New("i2c: no acknowledge")
	ErrLinkDown    = errors.New("radio: link down")
	ErrUnknownSSID = errors.New("radio: ssid not found")
	ErrAuth        = errors.New("radio: authentication failed")
	ErrFault       = errors.New("injected fault")
)

// SimAP is an access point visible to the simulated radio.
type SimAP struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Channel    uint8  `yaml:"channel"`
	RSSI       int8   `yaml:"rssi"`
}

// SimFaults injects failures into the simulated board.
type SimFaults struct {
	I2C       bool `yaml:"i2c"`        // NewI2C fails
	RadioInit bool `yaml:"radio_init"` // Radio.Init fails
	NoRadio   bool `yaml:"no_radio"`   // board has no radio
	Station   bool `yaml:"station"`    // StartStation fails
}

// SimConfig describes a simulated board.
type SimConfig struct {
	Name         string    `yaml:"name"`
	GPIOMin      int       `yaml:"gpio_min"`
	GPIOMax      int       `yaml:"gpio_max"`
	HardwareAddr [6]byte   `yaml:"-"`
	AccessPoints []SimAP   `yaml:"access_points"`
	Faults       SimFaults `yaml:"faults"`

	// RNGDraws are returned by the entropy source before it falls back to
	// a pseudo-random sequence.
	RNGDraws []uint32 `yaml:"rng_draws"`

	// I2CDevices maps 7-bit addresses to register images.
	I2CDevices map[uint16]map[byte]byte `yaml:"i2c_devices"`
}

// DefaultSimConfig mirrors the reference board: GPIO 0..48, an AXP2101 at
// 0x34 answering its chip ID, one open access point.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Name:         "sim",
		GPIOMin:      0,
		GPIOMax:      48,
		HardwareAddr: [6]byte{0x02, 0x00, 0x5e, 0x00, 0x00, 0x01},
		AccessPoints: []SimAP{{SSID: "bringup", Channel: 6, RSSI: -42}},
		I2CDevices:   map[uint16]map[byte]byte{0x34: {0x03: 0x4A}},
	}
}

// SimBoard implements core.Board on the host.
type SimBoard struct {
	cfg SimConfig

	mu       sync.Mutex
	taken    bool
	cpuClock core.CPUClock
	buses    map[int]*HostI2C
	timers   [2]*SimTimer
	entropy  *SimEntropy
	radio    *SimRadio
}

var _ core.Board = (*SimBoard)(nil)

func NewSimBoard(cfg SimConfig) *SimBoard {
	b := &SimBoard{
		cfg:     cfg,
		buses:   make(map[int]*HostI2C),
		timers:  [2]*SimTimer{{}, {}},
		entropy: &SimEntropy{draws: append([]uint32(nil), cfg.RNGDraws...), prng: rand.New(rand.NewSource(1))},
	}
	if !cfg.Faults.NoRadio {
		b.radio = &SimRadio{
			addr:      cfg.HardwareAddr,
			aps:       cfg.AccessPoints,
			failInit:  cfg.Faults.RadioInit,
			failStart: cfg.Faults.Station,
		}
	}
	return b
}

var defaultBoard = NewSimBoard(DefaultSimConfig())

// Default returns the process-wide board. On the host this is a simulated
// board so the firmware entry point can run under `go test`.
func Default() core.Board { return defaultBoard }

func (b *SimBoard) Name() string { return b.cfg.Name }

func (b *SimBoard) GPIORange() (int, int) { return b.cfg.GPIOMin, b.cfg.GPIOMax }

func (b *SimBoard) TakePeripherals() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.taken {
		return false
	}
	b.taken = true
	return true
}

func (b *SimBoard) SetCPUClock(c core.CPUClock) error {
	b.mu.Lock()
	b.cpuClock = c
	b.mu.Unlock()
	return nil
}

// CPUClock reports the clock selected by SetCPUClock.
func (b *SimBoard) CPUClock() core.CPUClock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cpuClock
}

func (b *SimBoard) NewI2C(id int, cfg core.I2CConfig, scl, sda int) (drivers.I2C, error) {
	if b.cfg.Faults.I2C {
		return nil, ErrFault
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bus := &HostI2C{ID: id, Frequency: cfg.Frequency, SCL: scl, SDA: sda, devices: b.cfg.I2CDevices}
	b.buses[id] = bus
	return bus, nil
}

// Bus returns the simulated bus built for id, for inspection in tests.
func (b *SimBoard) Bus(id int) (*HostI2C, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bus, ok := b.buses[id]
	return bus, ok
}

func (b *SimBoard) Timer(group int) (core.Timer, bool) {
	if group < 0 || group >= len(b.timers) {
		return nil, false
	}
	return b.timers[group], true
}

// SimTimer returns the concrete timer for group, for inspection in tests.
func (b *SimBoard) SimTimer(group int) *SimTimer { return b.timers[group] }

func (b *SimBoard) Entropy() (core.Entropy, bool) { return b.entropy, true }

func (b *SimBoard) Radio() (core.Radio, bool) {
	if b.radio == nil {
		return nil, false
	}
	return b.radio, true
}

// SimRadio returns the concrete radio, nil when the board has none.
func (b *SimBoard) SimRadio() *SimRadio { return b.radio }

// ----------------------------- I²C (host) ------------------------------------

// HostI2C implements drivers.I2C against in-memory register images. The
// first written byte selects the register; reads return consecutive
// registers. Unknown addresses NACK.
type HostI2C struct {
	ID        int
	Frequency uint32
	SCL, SDA  int

	mu      sync.Mutex
	devices map[uint16]map[byte]byte
	LastTx  struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)

	regs, ok := h.devices[addr]
	if !ok {
		return ErrNACK
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	for i, v := range w[1:] {
		regs[reg+byte(i)] = v
	}
	for i := range r {
		r[i] = regs[reg+byte(i)]
	}
	return nil
}

// ----------------------------- Timers ----------------------------------------

type SimTimer struct {
	mu      sync.Mutex
	started time.Time
}

func (t *SimTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		t.started = time.Now()
	}
	return nil
}

func (t *SimTimer) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.started.IsZero()
}

// ----------------------------- Entropy ---------------------------------------

type SimEntropy struct {
	mu    sync.Mutex
	draws []uint32
	prng  *rand.Rand
}

func (e *SimEntropy) Uint32() (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.draws) > 0 {
		v := e.draws[0]
		e.draws = e.draws[1:]
		return v, nil
	}
	return e.prng.Uint32(), nil
}

// ----------------------------- Radio -----------------------------------------

// SimRadio models a station-capable radio. Frames sent while associated
// are recorded; Inject delivers frames as if received over the air.
type SimRadio struct {
	addr      [6]byte
	aps       []SimAP
	failInit  bool
	failStart bool

	mu      sync.Mutex
	inited  bool
	station bool
	assoc   string
	timer   core.Timer
	entropy core.Entropy
	rx      func([]byte)
	link    func(bool)
	sent    [][]byte
}

func (r *SimRadio) Init(timer core.Timer, entropy core.Entropy) error {
	if r.failInit {
		return ErrFault
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer, r.entropy = timer, entropy
	r.inited = true
	return nil
}

func (r *SimRadio) StartStation() error {
	if r.failStart {
		return ErrFault
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.station = true
	return nil
}

func (r *SimRadio) HardwareAddr() [6]byte { return r.addr }
func (r *SimRadio) MTU() int              { return 1500 }

func (r *SimRadio) Scan() ([]core.AccessPoint, error) {
	out := make([]core.AccessPoint, 0, len(r.aps))
	for i, ap := range r.aps {
		out = append(out, core.AccessPoint{
			SSID:    ap.SSID,
			BSSID:   [6]byte{0x02, 0, 0, 0, 0, byte(i + 1)},
			Channel: ap.Channel,
			RSSI:    ap.RSSI,
			Secured: ap.Passphrase != "",
		})
	}
	return out, nil
}

func (r *SimRadio) Associate(ssid, passphrase string) error {
	var found *SimAP
	for i := range r.aps {
		if r.aps[i].SSID == ssid {
			found = &r.aps[i]
			break
		}
	}
	if found == nil {
		return ErrUnknownSSID
	}
	if found.Passphrase != passphrase {
		return ErrAuth
	}
	r.mu.Lock()
	r.assoc = ssid
	link := r.link
	r.mu.Unlock()
	if link != nil {
		link(true)
	}
	return nil
}

func (r *SimRadio) Disassociate() error {
	r.mu.Lock()
	was := r.assoc != ""
	r.assoc = ""
	link := r.link
	r.mu.Unlock()
	if was && link != nil {
		link(false)
	}
	return nil
}

func (r *SimRadio) Transmit(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assoc == "" {
		return ErrLinkDown
	}
	r.sent = append(r.sent, append([]byte(nil), frame...))
	return nil
}

func (r *SimRadio) SetReceiver(fn func([]byte)) {
	r.mu.Lock()
	r.rx = fn
	r.mu.Unlock()
}

func (r *SimRadio) SetLinkHandler(fn func(bool)) {
	r.mu.Lock()
	r.link = fn
	r.mu.Unlock()
}

// Inject delivers frame to the installed receiver.
func (r *SimRadio) Inject(frame []byte) {
	r.mu.Lock()
	rx := r.rx
	r.mu.Unlock()
	if rx != nil {
		rx(frame)
	}
}

// Sent returns copies of the frames transmitted so far.
func (r *SimRadio) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}

// Inited reports whether Init ran and with which timer.
func (r *SimRadio) Inited() (bool, core.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inited, r.timer
}

// Associated returns the SSID currently joined, "" when none.
func (r *SimRadio) Associated() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assoc
}
