package core

import "tinygo.org/x/drivers"

// ---- Clocks ----

type CPUClock uint8

const (
	CPUClockDefault CPUClock = iota
	CPUClockMax
)

func (c CPUClock) String() string {
	switch c {
	case CPUClockMax:
		return "max"
	default:
		return "default"
	}
}

// ---- I²C ----

// DefaultI2CFrequency is used when I2CConfig.Frequency is zero.
const DefaultI2CFrequency = 100_000

type I2CConfig struct {
	Frequency uint32 // Hz; 0 => DefaultI2CFrequency
}

// ---- Timers ----

// Timer is one hardware timer from a timer group. Start is idempotent.
type Timer interface {
	Start() error
}

// ---- Entropy ----

// Entropy is a hardware random source.
type Entropy interface {
	Uint32() (uint32, error)
}

// ---- Radio ----

type AccessPoint struct {
	SSID    string
	BSSID   [6]byte
	Channel uint8
	RSSI    int8
	Secured bool
}

// Radio is the Wi-Fi block as exposed by the board's radio firmware.
// Association and frame transport are implemented by the firmware; the
// bring-up only initialises it and splits it into device and controller.
type Radio interface {
	Init(timer Timer, entropy Entropy) error
	StartStation() error
	HardwareAddr() [6]byte
	MTU() int

	Scan() ([]AccessPoint, error)
	Associate(ssid, passphrase string) error
	Disassociate() error

	Transmit(frame []byte) error
	// SetReceiver installs the callback for inbound frames. The callback
	// may run in interrupt context and must not block.
	SetReceiver(func(frame []byte))
	SetLinkHandler(func(up bool))
}

// ---- Board ----

// Board is the SoC seen by the peripheral registry. Implementations live in
// internal/platform behind build tags.
type Board interface {
	Name() string
	GPIORange() (min, max int)

	// TakePeripherals hands out the peripherals token. Only the first
	// call returns true.
	TakePeripherals() bool

	SetCPUClock(c CPUClock) error
	NewI2C(id int, cfg I2CConfig, scl, sda int) (drivers.I2C, error)
	Timer(group int) (Timer, bool)
	Entropy() (Entropy, bool)
	Radio() (Radio, bool)
}
