package netstack

import (
	"errors"
	"math/rand"
	"sync"

	"bringup-go/errcode"
)

// Ephemeral port range (RFC 6335).
const (
	portMin = 49152
	portMax = 65535
)

var ErrClosed = errors.New("netstack: socket closed")

// Driver is the data-plane device the stack sends and receives frames on.
type Driver interface {
	HardwareAddr() [6]byte
	MTU() int
	LinkUp() bool
	Transmit(frame []byte) error
	TryReceive(buf []byte) (int, bool, error)
	Readable() <-chan struct{}
}

type Stats struct {
	TxFrames    uint32
	TxErrors    uint32
	RxFrames    uint32
	RxDropped   uint32 // socket buffer still full
	RxUnhandled uint32 // no socket bound to the port, or not ours
}

type slotState struct {
	open    bool
	gen     uint32
	port    uint16
	txLen   int
	rxLen   int
	rxFrom  uint16
	rxReady chan struct{}
}

// Stack owns the socket pool and hands out sockets.
type Stack struct {
	drv Driver
	cfg Config
	res *Resources

	mu      sync.Mutex
	slots   []slotState
	rng     *rand.Rand
	stats   Stats
	txReady chan struct{}
}

// New builds the stack and its runner over dev. The pool in res is bound
// to the new stack; a bound pool cannot be reused. seed drives ephemeral
// port selection.
func New(dev Driver, cfg Config, res *Resources, seed uint64) (*Stack, *Runner, error) {
	const op = "netstack new"
	if dev == nil {
		return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: op, Msg: "nil driver"}
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	if res == nil || res.Len() == 0 {
		return nil, nil, &errcode.E{C: errcode.InvalidParams, Op: op, Msg: "empty socket pool"}
	}
	if res.bound {
		return nil, nil, &errcode.E{C: errcode.Conflict, Op: op, Msg: "socket pool already bound"}
	}
	res.bound = true

	s := &Stack{
		drv:     dev,
		cfg:     cfg,
		res:     res,
		slots:   make([]slotState, res.Len()),
		rng:     rand.New(rand.NewSource(int64(seed))),
		txReady: make(chan struct{}, 1),
	}
	for i := range s.slots {
		s.slots[i] = slotState{rxLen: -1, rxReady: make(chan struct{}, 1)}
	}
	return s, &Runner{st: s, scratch: make([]byte, SlotBufSize), txBuf: make([]byte, SlotBufSize)}, nil
}

func (s *Stack) Config() Config { return s.cfg }
func (s *Stack) Driver() Driver { return s.drv }
func (s *Stack) IsLinkUp() bool { return s.drv.LinkUp() }

// Capacity is the number of sockets the pool can hold open at once.
func (s *Stack) Capacity() int { return len(s.slots) }

// InUse is the number of open sockets.
func (s *Stack) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.slots {
		if s.slots[i].open {
			n++
		}
	}
	return n
}

// Open takes a free slot and binds it to a fresh ephemeral port.
func (s *Stack) Open() (*Socket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.open {
			continue
		}
		sl.open = true
		sl.port = s.ephemeralPort()
		sl.txLen, sl.rxLen = 0, -1
		return &Socket{st: s, idx: i, gen: sl.gen, port: sl.port}, nil
	}
	return nil, &errcode.E{C: errcode.PoolExhausted, Op: "netstack open", Msg: "all socket slots in use"}
}

// ephemeralPort draws a port not bound by any open socket. Caller holds mu.
func (s *Stack) ephemeralPort() uint16 {
	for {
		p := uint16(portMin + s.rng.Intn(portMax-portMin+1))
		if s.slotByPort(p) < 0 {
			return p
		}
	}
}

func (s *Stack) slotByPort(port uint16) int {
	for i := range s.slots {
		if s.slots[i].open && s.slots[i].port == port {
			return i
		}
	}
	return -1
}

func (s *Stack) signalTx() {
	select {
	case s.txReady <- struct{}{}:
	default:
	}
}
