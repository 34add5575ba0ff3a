package bringup

import (
	"errors"
	"testing"

	"bringup-go/drivers/axp2101"
	"bringup-go/errcode"
	"bringup-go/internal/core"
	"bringup-go/internal/platform"
	"bringup-go/internal/setups"
	"bringup-go/internal/wifi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/netlink"
)

func simBoard(mod func(*platform.SimConfig)) *platform.SimBoard {
	cfg := platform.DefaultSimConfig()
	if mod != nil {
		mod(&cfg)
	}
	return platform.NewSimBoard(cfg)
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var e *Error
	require.True(t, errors.As(err, &e), "not a bring-up error: %v", err)
	return e.Kind
}

func TestBuildReferenceBoard(t *testing.T) {
	b := simBoard(nil)
	hw, err := Build(b, setups.Reference)
	require.NoError(t, err)

	require.NotNil(t, hw.Stack)
	require.NotNil(t, hw.Runner)
	require.NotNil(t, hw.PMU)
	assert.Equal(t, core.CPUClockMax, b.CPUClock())

	// PMU: fixed address on I2C0 with SCL 39, SDA 38 at the default rate.
	assert.Equal(t, uint16(0x34), hw.PMU.Address())
	bus, ok := b.Bus(0)
	require.True(t, ok)
	assert.Same(t, bus, hw.PMU.Bus())
	assert.Equal(t, 39, bus.SCL)
	assert.Equal(t, 38, bus.SDA)
	assert.Equal(t, uint32(core.DefaultI2CFrequency), bus.Frequency)
	assert.True(t, hw.PMU.Connected())
	assert.Equal(t, uint16(axp2101.Address), bus.LastTx.Addr)

	// Both timer groups are running and the radio firmware got TIMG0.
	assert.True(t, b.SimTimer(0).Started())
	assert.True(t, b.SimTimer(1).Started())
	inited, timer := b.SimRadio().Inited()
	assert.True(t, inited)
	assert.Same(t, b.SimTimer(0), timer)
}

func TestStackAndRunnerShareDevice(t *testing.T) {
	hw, err := Build(simBoard(nil), setups.Reference)
	require.NoError(t, err)

	assert.Equal(t, hw.Stack.Driver(), hw.Runner.Driver())
	dev, ok := hw.Stack.Driver().(wifi.Device)
	require.True(t, ok)
	assert.True(t, hw.Controller.Pairs(dev))
}

func TestSocketPoolHasFourSlots(t *testing.T) {
	hw, err := Build(simBoard(nil), setups.Reference)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := hw.Stack.Open()
		require.NoError(t, err)
	}
	_, err = hw.Stack.Open()
	assert.Equal(t, errcode.PoolExhausted, errcode.Of(err))
}

func TestDeriveSeed(t *testing.T) {
	assert.Equal(t, uint64(0xAABBCCDD11223344), deriveSeed(0xAABBCCDD, 0x11223344))
	assert.Equal(t, uint64(0xFFFFFFFF00000000), deriveSeed(0xFFFFFFFF, 0))
	assert.Equal(t, uint64(1), deriveSeed(0, 1))
}

func TestSeedComesFromFirstTwoDraws(t *testing.T) {
	port := func(draws ...uint32) uint16 {
		hw, err := Build(simBoard(func(c *platform.SimConfig) { c.RNGDraws = draws }), setups.Reference)
		require.NoError(t, err)
		s, err := hw.Stack.Open()
		require.NoError(t, err)
		return s.LocalPort()
	}
	a := port(0xAABBCCDD, 0x11223344)
	b := port(0xAABBCCDD, 0x11223344, 0xDEADBEEF)
	assert.Equal(t, a, b)
}

func TestControllerAssociates(t *testing.T) {
	b := simBoard(nil)
	hw, err := Build(b, setups.Reference)
	require.NoError(t, err)

	require.NoError(t, hw.Controller.Start())
	require.NoError(t, hw.Controller.Connect(&netlink.ConnectParams{Ssid: "bringup"}))
	assert.True(t, hw.Stack.IsLinkUp())
	assert.Equal(t, "bringup", b.SimRadio().Associated())
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*platform.SimConfig)
		kind Kind
		msg  string
	}{
		{"i2c fault", func(c *platform.SimConfig) { c.Faults.I2C = true }, KindBusConstructionFailed, ""},
		{"radio init fault", func(c *platform.SimConfig) { c.Faults.RadioInit = true }, KindWirelessInitFailed, "failed to initialize wifi"},
		{"no radio", func(c *platform.SimConfig) { c.Faults.NoRadio = true }, KindWirelessInitFailed, "no wifi device available"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(simBoard(tc.mod), setups.Reference)
			require.Error(t, err)
			assert.Equal(t, tc.kind, kindOf(t, err))
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.msg, e.Msg)
		})
	}
}

func TestBadPlanRejected(t *testing.T) {
	plan := setups.Reference
	plan.PMU.SCL = 200
	_, err := Build(simBoard(nil), plan)
	assert.Equal(t, KindPeripherals, kindOf(t, err))
	assert.Equal(t, errcode.InvalidParams, err.(*Error).Code())
}

func TestPMUAddressFixed(t *testing.T) {
	plan := setups.Reference
	plan.PMU.Bus, plan.PMU.SCL, plan.PMU.SDA, plan.PMU.Hz = 1, 4, 5, 400_000
	b := simBoard(nil)
	hw, err := Build(b, plan)
	require.NoError(t, err)

	bus, ok := b.Bus(1)
	require.True(t, ok)
	assert.Equal(t, uint16(axp2101.Address), hw.PMU.Address())
	assert.Equal(t, uint16(axp2101.Address), bus.LastTx.Addr)
	assert.Equal(t, uint32(400_000), bus.Frequency)
}

func TestSecondBuildOnSameCells(t *testing.T) {
	c := newCells()
	_, err := build(c, simBoard(nil), setups.Reference)
	require.NoError(t, err)

	_, err = build(c, simBoard(nil), setups.Reference)
	assert.Equal(t, KindAlreadyInitialized, kindOf(t, err))
	assert.Equal(t, errcode.AlreadyInitialized, err.(*Error).Code())
}

func TestBoardYieldsPeripheralsOnce(t *testing.T) {
	b := simBoard(nil)
	_, err := Build(b, setups.Reference)
	require.NoError(t, err)

	_, err = Build(b, setups.Reference)
	assert.Equal(t, KindAlreadyInitialized, kindOf(t, err))
}

func TestInitOncePerProcess(t *testing.T) {
	hw := Init()
	assert.NotNil(t, hw.Stack)
	assert.NotNil(t, hw.Runner)
	assert.NotNil(t, hw.PMU)

	assert.Panics(t, func() { Init() })
}

func TestErrorString(t *testing.T) {
	e := &Error{Kind: KindDeviceConstructionFailed, Op: "wifi station", Msg: "no wifi device available", Err: wifi.ErrNoDevice}
	assert.Equal(t, "bringup: device_construction_failed: wifi station: no wifi device available: wifi: no device available", e.Error())
	assert.ErrorIs(t, e, wifi.ErrNoDevice)
}

func TestDeviceConstructionFailure(t *testing.T) {
	plan := setups.Reference
	plan.HeapSize = 1024
	_, err := Build(simBoard(nil), plan)
	assert.Equal(t, KindDeviceConstructionFailed, kindOf(t, err))
	assert.Equal(t, "failed to create wifi device", err.(*Error).Msg)
	assert.Equal(t, errcode.HeapExhausted, err.(*Error).Code())
}
