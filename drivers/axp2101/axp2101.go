// Package axp2101 provides the bring-up handle for the X-Powers AXP2101
// power-management unit.
//
// Construction binds an I²C bus to the chip's fixed address and does not
// touch the device. Register-level power management is layered on top by
// the application; this package only identifies the chip.
package axp2101

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address is the AXP2101's 7-bit I²C address. It is not strappable.
const Address = 0x34

const (
	regChipID = 0x03
	chipID    = 0x4A
)

var ErrNotFound = errors.New("axp2101: chip id mismatch")

// Device is an AXP2101 on an I²C bus.
type Device struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [1]byte
	r [1]byte
}

// New binds bus to the AXP2101 at Address.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: Address}
}

func (d *Device) Address() uint16  { return d.addr }
func (d *Device) Bus() drivers.I2C { return d.bus }

// ChipID reads the IC type register.
func (d *Device) ChipID() (byte, error) {
	return d.readReg(regChipID)
}

// Connected reports whether the device answers with the AXP2101 chip ID.
func (d *Device) Connected() bool {
	id, err := d.ChipID()
	return err == nil && id == chipID
}

// Probe returns ErrNotFound, or the bus error, unless the chip answers.
func (d *Device) Probe() error {
	id, err := d.ChipID()
	if err != nil {
		return err
	}
	if id != chipID {
		return ErrNotFound
	}
	return nil
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:], d.r[:]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}
