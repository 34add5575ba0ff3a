package bringup

import (
	"bringup-go/errcode"
)

// Kind classifies a bring-up failure.
type Kind uint8

const (
	KindHeap Kind = iota + 1
	KindLogging
	KindPeripherals
	KindBusConstructionFailed
	KindWirelessInitFailed
	KindDeviceConstructionFailed
	KindAlreadyInitialized
	KindNetworkStack
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindLogging:
		return "logging"
	case KindPeripherals:
		return "peripherals"
	case KindBusConstructionFailed:
		return "bus_construction_failed"
	case KindWirelessInitFailed:
		return "wireless_init_failed"
	case KindDeviceConstructionFailed:
		return "device_construction_failed"
	case KindAlreadyInitialized:
		return "already_initialized"
	case KindNetworkStack:
		return "network_stack"
	default:
		return "unknown"
	}
}

// Error is a failed bring-up step. Every Error is fatal at the entry point.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := "bringup: " + e.Kind.String()
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Code maps the failure onto the shared error codes.
func (e *Error) Code() errcode.Code {
	if e.Kind == KindAlreadyInitialized {
		return errcode.AlreadyInitialized
	}
	if c := errcode.Of(e.Err); c != errcode.OK {
		return c
	}
	return errcode.Error
}

// fail builds the Error for a step. A cell that was already claimed
// reports KindAlreadyInitialized whatever step it belongs to.
func fail(k Kind, op string, err error) *Error {
	if errcode.Of(err) == errcode.AlreadyInitialized {
		k = KindAlreadyInitialized
	}
	return &Error{Kind: k, Op: op, Err: err}
}
