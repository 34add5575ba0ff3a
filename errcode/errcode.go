package errcode

// Code is a stable error identifier shared by every bring-up component.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"
	Conflict      Code = "conflict"

	// One-shot initialisation.
	AlreadyInitialized Code = "already_initialized"
	NotInitialized     Code = "not_initialized"

	// Peripheral ownership.
	UnknownBus Code = "unknown_bus"
	BusInUse   Code = "bus_in_use"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	InUse      Code = "in_use"

	// Memory and pools.
	HeapNotReady  Code = "heap_not_ready"
	HeapExhausted Code = "heap_exhausted"
	PoolExhausted Code = "pool_exhausted"

	// Radio.
	NoDevice Code = "no_device"

	Error Code = "error" // generic fallback
)

// E is the optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil && e.Err != error(e.C) {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns an *E carrying c, op and the cause err.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
// Wrapped chains are searched, so a Code survives fmt.Errorf("%w").
func Of(err error) Code {
	type coder interface{ Code() Code }
	for err != nil {
		switch x := err.(type) {
		case Code:
			return x
		case coder:
			return x.Code()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return Error
		}
		err = u.Unwrap()
	}
	return OK
}
