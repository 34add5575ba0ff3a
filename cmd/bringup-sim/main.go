//go:build !rp2350

// Command bringup-sim runs the board bring-up against a simulated board
// and exercises the resulting network stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	profilePath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "bringup-sim",
	Short: "Run the firmware bring-up on a simulated board",
	Long: `Run the one-time board bring-up (heap, logging, peripherals, PMU,
Wi-Fi network stack) against a simulated board described by a YAML
profile, then drive the resulting resources.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel != "" {
			return os.Setenv("LOG_LEVEL", logLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "", "board profile (YAML); default is the reference board")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.AddCommand(runCmd, scanCmd, profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
