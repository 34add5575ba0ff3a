package netstack

import (
	"context"
	"sync"
	"testing"
	"time"

	"bringup-go/errcode"
	"bringup-go/internal/heap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testMAC = [6]byte{0x02, 0, 0x5e, 0, 0, 0x01}

type fakeDriver struct {
	mu    sync.Mutex
	down  bool
	rx    [][]byte
	tx    [][]byte
	ready chan struct{}
	sent  chan struct{}
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{ready: make(chan struct{}, 1), sent: make(chan struct{}, 16)}
}

func (d *fakeDriver) HardwareAddr() [6]byte { return testMAC }
func (d *fakeDriver) MTU() int              { return 1500 }

func (d *fakeDriver) LinkUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.down
}

func (d *fakeDriver) Transmit(frame []byte) error {
	d.mu.Lock()
	down := d.down
	if !down {
		d.tx = append(d.tx, append([]byte(nil), frame...))
	}
	d.mu.Unlock()
	d.sent <- struct{}{}
	if down {
		return &errcode.E{C: errcode.Busy, Op: "fake tx", Msg: "link down"}
	}
	return nil
}

func (d *fakeDriver) TryReceive(buf []byte) (int, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rx) == 0 {
		return 0, false, nil
	}
	f := d.rx[0]
	d.rx = d.rx[1:]
	return copy(buf, f), true, nil
}

func (d *fakeDriver) Readable() <-chan struct{} { return d.ready }

func (d *fakeDriver) inject(f []byte) {
	d.mu.Lock()
	d.rx = append(d.rx, f)
	d.mu.Unlock()
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *fakeDriver) frames() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.tx...)
}

func newResources(t *testing.T, n int) *Resources {
	t.Helper()
	a := &heap.Arena{}
	require.NoError(t, a.Init(heap.DefaultCapacity))
	res, err := NewResources(a, n)
	require.NoError(t, err)
	return &res
}

func newStack(t *testing.T, seed uint64) (*Stack, *Runner, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	st, run, err := New(drv, DHCPv4(DHCPConfig{}), newResources(t, 4), seed)
	require.NoError(t, err)
	return st, run, drv
}

// startRunner runs r until the test ends.
func startRunner(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
	require.Eventually(t, r.running.Load, time.Second, time.Millisecond)
}

func TestConfig(t *testing.T) {
	c := DHCPv4(DHCPConfig{Hostname: "node"})
	assert.Equal(t, ModeDHCPv4, c.Mode)
	assert.Equal(t, defaultDHCPTimeout, c.DHCP.Timeout)
	assert.NoError(t, c.validate())

	_, _, err := New(newFakeDriver(), Config{}, newResources(t, 1), 0)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
}

func TestNewResources(t *testing.T) {
	a := &heap.Arena{}
	_, err := NewResources(a, 4)
	assert.Equal(t, errcode.HeapNotReady, errcode.Of(err))

	require.NoError(t, a.Init(heap.DefaultCapacity))
	_, err = NewResources(a, 0)
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))

	res, err := NewResources(a, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
	assert.Equal(t, 2*4*SlotBufSize, a.Len())
}

func TestPoolBindsOnce(t *testing.T) {
	res := newResources(t, 2)
	_, _, err := New(newFakeDriver(), DHCPv4(DHCPConfig{}), res, 1)
	require.NoError(t, err)
	assert.True(t, res.Bound())

	_, _, err = New(newFakeDriver(), DHCPv4(DHCPConfig{}), res, 1)
	assert.Equal(t, errcode.Conflict, errcode.Of(err))
}

func TestStackAndRunnerShareDriver(t *testing.T) {
	st, run, drv := newStack(t, 1)
	assert.Equal(t, st.Driver(), run.Driver())
	assert.Same(t, drv, st.Driver().(*fakeDriver))
	assert.True(t, st.IsLinkUp())
}

func TestOpenExhaustsPool(t *testing.T) {
	st, _, _ := newStack(t, 7)
	socks := make([]*Socket, 0, 4)
	for i := 0; i < 4; i++ {
		s, err := st.Open()
		require.NoError(t, err)
		socks = append(socks, s)
	}
	assert.Equal(t, 4, st.InUse())

	_, err := st.Open()
	assert.Equal(t, errcode.PoolExhausted, errcode.Of(err))

	require.NoError(t, socks[2].Close())
	assert.ErrorIs(t, socks[2].Close(), ErrClosed)
	assert.Equal(t, 3, st.InUse())
	_, err = st.Open()
	assert.NoError(t, err)
}

func TestEphemeralPortsFollowSeed(t *testing.T) {
	a, _, _ := newStack(t, 0xAABBCCDD11223344)
	b, _, _ := newStack(t, 0xAABBCCDD11223344)

	seen := map[uint16]bool{}
	for i := 0; i < 4; i++ {
		sa, err := a.Open()
		require.NoError(t, err)
		sb, err := b.Open()
		require.NoError(t, err)

		p := sa.LocalPort()
		assert.Equal(t, p, sb.LocalPort())
		assert.GreaterOrEqual(t, int(p), portMin)
		assert.False(t, seen[p], "port %d reused", p)
		seen[p] = true
	}
}

func TestSendIsBusyUntilFlushed(t *testing.T) {
	st, run, drv := newStack(t, 1)
	s, err := st.Open()
	require.NoError(t, err)

	require.NoError(t, s.Send(5000, []byte("ping")))
	assert.Equal(t, errcode.Busy, errcode.Of(s.Send(5000, []byte("again"))))

	run.flush()
	frames := drv.frames()
	require.Len(t, frames, 1)
	h, ok := parseHeader(frames[0])
	require.True(t, ok)
	assert.Equal(t, Broadcast, h.dst)
	assert.Equal(t, testMAC, h.src)
	assert.Equal(t, uint16(5000), h.dstPort)
	assert.Equal(t, s.LocalPort(), h.srcPort)
	assert.Equal(t, "ping", string(frames[0][headerLen:]))

	assert.NoError(t, s.Send(5000, []byte("again")))
	assert.Equal(t, uint32(1), run.Stats().TxFrames)
}

func TestSendRejectsOversize(t *testing.T) {
	st, _, _ := newStack(t, 1)
	s, err := st.Open()
	require.NoError(t, err)
	err = s.Send(1, make([]byte, SlotBufSize))
	assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
}

func TestRunnerDelivers(t *testing.T) {
	st, run, drv := newStack(t, 3)
	s, err := st.Open()
	require.NoError(t, err)
	startRunner(t, run)

	peer := [6]byte{0x02, 0, 0, 0, 0, 0x09}
	drv.inject(AppendFrame(nil, testMAC, peer, 9999, s.LocalPort(), []byte("stray")))
	drv.inject(AppendFrame(nil, testMAC, peer, s.LocalPort(), 7, []byte("hello")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	buf := make([]byte, 64)
	n, from, err := s.Recv(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Equal(t, uint16(7), from)

	require.NoError(t, s.Send(from, []byte("reply")))
	select {
	case <-drv.sent:
	case <-time.After(time.Second):
		t.Fatal("runner did not transmit")
	}
	stats := run.Stats()
	assert.Equal(t, uint32(2), stats.RxFrames)
	assert.Equal(t, uint32(1), stats.RxUnhandled)
}

func TestRunnerDropsWhenSocketFull(t *testing.T) {
	st, run, drv := newStack(t, 3)
	s, err := st.Open()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		drv.inject(AppendFrame(nil, Broadcast, testMAC, s.LocalPort(), 1, []byte{byte(i)}))
	}
	run.drain()

	buf := make([]byte, 8)
	n, _, err := s.Recv(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf[:n])
	assert.Equal(t, uint32(1), run.Stats().RxDropped)
}

func TestTransmitErrorsCounted(t *testing.T) {
	st, run, drv := newStack(t, 1)
	drv.down = true
	s, err := st.Open()
	require.NoError(t, err)

	require.NoError(t, s.Send(1, []byte("x")))
	run.flush()
	assert.Equal(t, uint32(1), run.Stats().TxErrors)
	assert.NoError(t, s.Send(1, []byte("y")))
}

func TestSecondRunIsBusy(t *testing.T) {
	_, run, _ := newStack(t, 1)
	startRunner(t, run)

	err := run.Run(context.Background())
	assert.Equal(t, errcode.Busy, errcode.Of(err))
}

func TestCloseWakesRecv(t *testing.T) {
	st, _, _ := newStack(t, 1)
	s, err := st.Open()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.Recv(context.Background(), make([]byte, 8))
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Recv still blocked after Close")
	}
}

// stallDriver holds every Transmit until release is closed.
type stallDriver struct {
	*fakeDriver
	entered chan struct{}
	release chan struct{}
}

func (d *stallDriver) Transmit(frame []byte) error {
	d.entered <- struct{}{}
	<-d.release
	return d.fakeDriver.Transmit(frame)
}

func TestSlotReuseDuringTransmit(t *testing.T) {
	drv := &stallDriver{fakeDriver: newFakeDriver(), entered: make(chan struct{}, 4), release: make(chan struct{})}
	st, run, err := New(drv, DHCPv4(DHCPConfig{}), newResources(t, 1), 5)
	require.NoError(t, err)

	a, err := st.Open()
	require.NoError(t, err)
	require.NoError(t, a.Send(1111, []byte("AAAA")))

	flushed := make(chan struct{})
	go func() {
		run.flush()
		close(flushed)
	}()
	<-drv.entered

	require.NoError(t, a.Close())
	b, err := st.Open()
	require.NoError(t, err)
	require.NoError(t, b.Send(2222, []byte("BBBB")))

	close(drv.release)
	<-flushed
	run.flush()
	<-drv.entered

	frames := drv.frames()
	require.Len(t, frames, 2)
	h, ok := parseHeader(frames[0])
	require.True(t, ok)
	assert.Equal(t, uint16(1111), h.dstPort)
	assert.Equal(t, a.LocalPort(), h.srcPort)
	assert.Equal(t, "AAAA", string(frames[0][headerLen:]))

	h, ok = parseHeader(frames[1])
	require.True(t, ok)
	assert.Equal(t, uint16(2222), h.dstPort)
	assert.Equal(t, b.LocalPort(), h.srcPort)
	assert.Equal(t, "BBBB", string(frames[1][headerLen:]))

	run.flush()
	assert.Len(t, drv.frames(), 2, "a datagram is transmitted once")
	assert.Equal(t, uint32(2), run.Stats().TxFrames)
}
