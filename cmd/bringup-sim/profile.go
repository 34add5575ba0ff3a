//go:build !rp2350

package main

import (
	"fmt"
	"net"
	"os"

	"bringup-go/internal/platform"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// profile is the YAML form of a simulated board. Fields left out keep the
// reference board's values.
type profile struct {
	platform.SimConfig `yaml:",inline"`

	MAC string `yaml:"mac"`
}

func loadProfile(path string) (platform.SimConfig, error) {
	cfg := platform.DefaultSimConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return parseProfile(data)
}

func parseProfile(data []byte) (platform.SimConfig, error) {
	p := profile{SimConfig: platform.DefaultSimConfig()}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return platform.SimConfig{}, fmt.Errorf("parse profile: %w", err)
	}
	if p.MAC != "" {
		hw, err := net.ParseMAC(p.MAC)
		if err != nil || len(hw) != 6 {
			return platform.SimConfig{}, fmt.Errorf("profile mac %q: want a 48-bit address", p.MAC)
		}
		copy(p.HardwareAddr[:], hw)
	}
	if p.GPIOMax < p.GPIOMin {
		return platform.SimConfig{}, fmt.Errorf("profile gpio range %d..%d is empty", p.GPIOMin, p.GPIOMax)
	}
	return p.SimConfig, nil
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the effective board profile as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfile(profilePath)
		if err != nil {
			return err
		}
		out := profile{SimConfig: cfg, MAC: net.HardwareAddr(cfg.HardwareAddr[:]).String()}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	},
}
