// Package wifi initialises the radio firmware and splits the radio into a
// data-plane Device and a control-plane Controller.
//
// Both views come from one NewStation call and share the radio's link
// state. Their fields are unexported: nothing outside this package can
// build either one on its own.
package wifi

import (
	"errors"

	"bringup-go/errcode"
	"bringup-go/internal/core"
	"bringup-go/internal/heap"
	"bringup-go/internal/periph"
	"bringup-go/x/logx"
	"bringup-go/x/shmring"
)

// RxRingSize is the receive ring taken from the heap arena, in bytes.
// It holds a few full-MTU frames with their length prefixes.
const RxRingSize = 4096

var (
	// ErrNoDevice reports a board without a usable radio.
	ErrNoDevice = errors.New("wifi: no device available")
	// ErrForeignRadio reports a radio handle that is not the one the
	// subsystem was initialised on.
	ErrForeignRadio = errors.New("wifi: radio does not belong to subsystem")
)

// Subsystem is the initialised radio firmware.
type Subsystem struct {
	fw      core.Radio
	timer   core.Timer
	station bool
}

// Init starts the radio timer and boots the radio firmware with the
// hardware entropy source.
func Init(timer core.Timer, rng *periph.RNG, clk *periph.RadioClock) (Subsystem, error) {
	fw, ok := clk.Firmware()
	if !ok {
		return Subsystem{}, errcode.Wrap(errcode.NoDevice, "wifi init", ErrNoDevice)
	}
	if err := timer.Start(); err != nil {
		return Subsystem{}, errcode.Wrap(errcode.Error, "wifi timer", err)
	}
	if err := fw.Init(timer, rng.Entropy()); err != nil {
		return Subsystem{}, errcode.Wrap(errcode.Error, "wifi init", err)
	}
	logx.Debug("wifi firmware up")
	return Subsystem{fw: fw, timer: timer}, nil
}

// NewStation builds the station-mode device/controller pair on radio.
// A subsystem yields one pair; the receive ring comes from alloc.
func NewStation(sub *Subsystem, radio *periph.Radio, alloc heap.Allocator) (Device, Controller, error) {
	hw, ok := radio.Hardware()
	if !ok {
		return Device{}, Controller{}, errcode.Wrap(errcode.NoDevice, "wifi station", ErrNoDevice)
	}
	if sub.fw == nil {
		return Device{}, Controller{}, &errcode.E{C: errcode.NotInitialized, Op: "wifi station"}
	}
	if hw != sub.fw {
		return Device{}, Controller{}, errcode.Wrap(errcode.Conflict, "wifi station", ErrForeignRadio)
	}
	if sub.station {
		return Device{}, Controller{}, &errcode.E{C: errcode.AlreadyInitialized, Op: "wifi station"}
	}
	buf, err := alloc.Alloc(RxRingSize)
	if err != nil {
		return Device{}, Controller{}, err
	}

	l := &link{radio: hw, rx: shmring.New(buf)}
	hw.SetReceiver(l.onFrame)
	hw.SetLinkHandler(l.onLink)
	sub.station = true
	return Device{l: l}, Controller{l: l}, nil
}
