// Command bringup-go is the board firmware: bring-up, then station-mode
// Wi-Fi with the network monitor on the message bus.
//
// The RP2350 has no on-chip radio. A radio backend package must be linked
// into the build and call platform.RegisterRadio from its init; without
// one the firmware reports the missing backend and halts before bring-up.
package main

import (
	"context"
	"time"

	"bringup-go/bringup"
	"bringup-go/bus"
	"bringup-go/internal/core"
	"bringup-go/internal/platform"
	"bringup-go/services/netmon"
	"bringup-go/x/logx"

	"tinygo.org/x/drivers/netlink"
)

// Set with -ldflags "-X main.ssid=... -X main.passphrase=...".
var (
	ssid       = "bringup"
	passphrase = ""
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	if !radioLinked(platform.Default()) {
		println("bringup: no radio backend linked, halting")
		select {}
	}
	hw := bringup.Init()
	ctx := context.Background()

	go func() {
		if err := hw.Runner.Run(ctx); err != nil {
			logx.Error("network runner exited", "err", err)
		}
	}()

	b := bus.NewBus(8)
	mon := &netmon.Service{
		Link:     hw.Stack,
		Counters: hw.Runner,
		Notify:   hw.Controller.Notify,
	}
	mon.Start(ctx, b.NewConnection("netmon"))

	if err := hw.Controller.Start(); err != nil {
		logx.Error("wifi start failed", "err", err)
		select {}
	}
	params := &netlink.ConnectParams{ConnectMode: netlink.ConnectModeSTA, Ssid: ssid, Passphrase: passphrase}
	for {
		err := hw.Controller.Connect(params)
		if err == nil {
			break
		}
		logx.Warn("wifi connect failed, retrying", "ssid", ssid, "err", err)
		time.Sleep(5 * time.Second)
	}

	select {}
}

// radioLinked reports whether b has a radio backend to bring up.
func radioLinked(b core.Board) bool {
	_, ok := b.Radio()
	return ok
}
