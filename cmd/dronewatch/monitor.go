package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dronewatch/internal/monitor"
)

var monitorURL string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the live telemetry feed in the terminal",
	Long:  "monitor connects to a server's WebSocket feed and renders the fleet as a live table with an event log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal; route slog away from it.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		m := monitor.New()
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := monitor.NewFeed(monitorURL, m, logger)
		go feed.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorURL, "url", "ws://localhost:8000/ws/telemetry/live", "WebSocket feed URL")
}
