package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dronewatch",
	Short: "Drone telemetry normalization and live-state distribution",
	Long:  "dronewatch serves facility-aware drone telemetry: live session tracking, recorded flight playback, and airspace ceiling checks.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(monitorCmd)
}
