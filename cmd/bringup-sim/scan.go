//go:build !rp2350

package main

import (
	"fmt"
	"net"

	"bringup-go/bringup"
	"bringup-go/internal/platform"
	"bringup-go/internal/setups"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Bring up the board and list visible access points",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfile(profilePath)
		if err != nil {
			return err
		}
		hw, err := bringup.Build(platform.NewSimBoard(cfg), setups.Selected)
		if err != nil {
			return err
		}
		if err := hw.Controller.Start(); err != nil {
			return err
		}
		aps, err := hw.Controller.Scan()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ap := range aps {
			sec := "open"
			if ap.Secured {
				sec = "wpa2"
			}
			fmt.Fprintf(out, "%-24s %s ch=%-2d rssi=%d %s\n",
				ap.SSID, net.HardwareAddr(ap.BSSID[:]), ap.Channel, ap.RSSI, sec)
		}
		if id, err := hw.PMU.ChipID(); err == nil {
			fmt.Fprintf(out, "pmu 0x%02x chip_id=0x%02x\n", hw.PMU.Address(), id)
		}
		return nil
	},
}
