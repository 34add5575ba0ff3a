package bringup

import (
	"bringup-go/drivers/axp2101"
	"bringup-go/internal/core"
	"bringup-go/internal/periph"
	"bringup-go/internal/setups"
	"bringup-go/x/logx"
)

const pmuOwner = "pmu"

// buildPMU claims the PMU bus and its pins and binds the AXP2101 driver
// at its fixed address.
func buildPMU(p *periph.Peripherals, plan setups.PMUPlan) (*axp2101.Device, error) {
	const op = "pmu bus"
	i2c, err := p.ClaimI2C(pmuOwner, plan.Bus)
	if err != nil {
		return nil, fail(KindBusConstructionFailed, op, err)
	}
	scl, err := p.ClaimPin(pmuOwner, plan.SCL)
	if err != nil {
		return nil, fail(KindBusConstructionFailed, op, err)
	}
	sda, err := p.ClaimPin(pmuOwner, plan.SDA)
	if err != nil {
		return nil, fail(KindBusConstructionFailed, op, err)
	}
	bus, err := i2c.NewBlocking(core.I2CConfig{Frequency: plan.Hz}, scl, sda)
	if err != nil {
		return nil, fail(KindBusConstructionFailed, op, err)
	}

	pmu := axp2101.New(bus)
	if id, err := pmu.ChipID(); err != nil {
		logx.Warn("pmu not responding", "addr", int(pmu.Address()), "err", err)
	} else {
		logx.Info("pmu ready",
			"bus", i2c.ID(),
			"scl", scl.Number(),
			"sda", sda.Number(),
			"addr", int(pmu.Address()),
			"chip_id", int(id))
	}
	return pmu, nil
}
