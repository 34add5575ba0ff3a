package wifi

import (
	"context"
	"testing"
	"time"

	"bringup-go/errcode"
	"bringup-go/internal/heap"
	"bringup-go/internal/periph"
	"bringup-go/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/netlink"
)

type fixture struct {
	board *platform.SimBoard
	p     *periph.Peripherals
	arena *heap.Arena
}

func newFixture(t *testing.T, cfg platform.SimConfig) fixture {
	t.Helper()
	b := platform.NewSimBoard(cfg)
	p, err := periph.Init(b, periph.DefaultConfig())
	require.NoError(t, err)
	a := &heap.Arena{}
	require.NoError(t, a.Init(heap.DefaultCapacity))
	return fixture{board: b, p: p, arena: a}
}

func (f fixture) subsystem(t *testing.T) Subsystem {
	t.Helper()
	tg, err := f.p.ClaimTimerGroup("wifi", 0)
	require.NoError(t, err)
	rng, err := f.p.ClaimRNG("wifi")
	require.NoError(t, err)
	clk, err := f.p.ClaimRadioClock("wifi")
	require.NoError(t, err)
	sub, err := Init(tg.Timer0(), rng, clk)
	require.NoError(t, err)
	return sub
}

func (f fixture) station(t *testing.T) (Device, Controller) {
	t.Helper()
	sub := f.subsystem(t)
	radio, err := f.p.ClaimRadio("wifi")
	require.NoError(t, err)
	dev, ctl, err := NewStation(&sub, radio, f.arena)
	require.NoError(t, err)
	return dev, ctl
}

func TestInitStartsTimerAndFirmware(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	f.subsystem(t)

	assert.True(t, f.board.SimTimer(0).Started())
	inited, timer := f.board.SimRadio().Inited()
	assert.True(t, inited)
	assert.Same(t, f.board.SimTimer(0), timer)
}

func TestInitWithoutRadio(t *testing.T) {
	cfg := platform.DefaultSimConfig()
	cfg.Faults.NoRadio = true
	f := newFixture(t, cfg)

	tg, _ := f.p.ClaimTimerGroup("wifi", 0)
	rng, _ := f.p.ClaimRNG("wifi")
	clk, _ := f.p.ClaimRadioClock("wifi")
	_, err := Init(tg.Timer0(), rng, clk)
	require.ErrorIs(t, err, ErrNoDevice)
	assert.Equal(t, errcode.NoDevice, errcode.Of(err))
}

func TestInitFirmwareFault(t *testing.T) {
	cfg := platform.DefaultSimConfig()
	cfg.Faults.RadioInit = true
	f := newFixture(t, cfg)

	tg, _ := f.p.ClaimTimerGroup("wifi", 0)
	rng, _ := f.p.ClaimRNG("wifi")
	clk, _ := f.p.ClaimRadioClock("wifi")
	_, err := Init(tg.Timer0(), rng, clk)
	require.ErrorIs(t, err, platform.ErrFault)
}

func TestNewStationOnce(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	sub := f.subsystem(t)
	radio, err := f.p.ClaimRadio("wifi")
	require.NoError(t, err)

	dev, ctl, err := NewStation(&sub, radio, f.arena)
	require.NoError(t, err)
	assert.True(t, ctl.Pairs(dev))
	assert.Equal(t, RxRingSize, f.arena.Len())

	_, _, err = NewStation(&sub, radio, f.arena)
	assert.Equal(t, errcode.AlreadyInitialized, errcode.Of(err))
}

func TestNewStationNeedsArena(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	sub := f.subsystem(t)
	radio, _ := f.p.ClaimRadio("wifi")

	_, _, err := NewStation(&sub, radio, &heap.Arena{})
	assert.Equal(t, errcode.HeapNotReady, errcode.Of(err))
}

func TestNewStationRejectsUninitialisedSubsystem(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	radio, _ := f.p.ClaimRadio("wifi")

	_, _, err := NewStation(&Subsystem{}, radio, f.arena)
	assert.Equal(t, errcode.NotInitialized, errcode.Of(err))
}

func TestConnectValidation(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	_, ctl := f.station(t)

	err := ctl.Connect(&netlink.ConnectParams{Ssid: "bringup"})
	assert.Equal(t, errcode.NotInitialized, errcode.Of(err))

	require.NoError(t, ctl.Start())
	require.NoError(t, ctl.Start())

	cases := []struct {
		name string
		p    netlink.ConnectParams
		want error
	}{
		{"ap mode", netlink.ConnectParams{ConnectMode: netlink.ConnectModeAP, Ssid: "x"}, netlink.ErrConnectModeNoGood},
		{"no ssid", netlink.ConnectParams{}, netlink.ErrMissingSSID},
		{"short pass", netlink.ConnectParams{Ssid: "x", Passphrase: "1234"}, netlink.ErrShortPassphrase},
		{"unknown ssid", netlink.ConnectParams{Ssid: "nope"}, platform.ErrUnknownSSID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.p
			assert.ErrorIs(t, ctl.Connect(&p), tc.want)
		})
	}
	assert.False(t, ctl.IsConnected())
}

func TestLinkEventsAndFrames(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	dev, ctl := f.station(t)
	require.NoError(t, ctl.Start())

	var events []netlink.Event
	ctl.Notify(func(e netlink.Event) { events = append(events, e) })

	assert.Equal(t, errcode.Busy, errcode.Of(dev.Transmit([]byte{1})))

	require.NoError(t, ctl.Connect(&netlink.ConnectParams{Ssid: "bringup"}))
	assert.True(t, ctl.IsConnected())
	assert.True(t, dev.LinkUp())

	require.NoError(t, dev.Transmit([]byte{0xAA, 0xBB}))
	assert.Equal(t, [][]byte{{0xAA, 0xBB}}, f.board.SimRadio().Sent())

	f.board.SimRadio().Inject([]byte("hello"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	buf := make([]byte, 64)
	n, err := dev.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	require.NoError(t, ctl.Disconnect())
	assert.False(t, dev.LinkUp())
	assert.Equal(t, []netlink.Event{netlink.EventNetUp, netlink.EventNetDown}, events)
}

func TestReceiveOverflowCountsDrops(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	dev, _ := f.station(t)

	frame := make([]byte, 1000)
	for i := 0; i < 5; i++ {
		f.board.SimRadio().Inject(frame)
	}
	assert.Equal(t, uint32(1), dev.RxDrops())

	buf := make([]byte, 1500)
	for i := 0; i < 4; i++ {
		n, ok, err := dev.TryReceive(buf)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, len(frame), n)
	}
	_, ok, _ := dev.TryReceive(buf)
	assert.False(t, ok)
}

func TestReceiveHonoursContext(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	dev, _ := f.station(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dev.Receive(ctx, make([]byte, 16))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanNeedsStart(t *testing.T) {
	f := newFixture(t, platform.DefaultSimConfig())
	_, ctl := f.station(t)

	_, err := ctl.Scan()
	assert.Error(t, err)
	require.NoError(t, ctl.Start())
	aps, err := ctl.Scan()
	require.NoError(t, err)
	require.Len(t, aps, 1)
	assert.Equal(t, "bringup", aps[0].SSID)
}
