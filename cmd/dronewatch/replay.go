package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dronewatch/internal/archive"
	"dronewatch/internal/telemetry"
)

var (
	replayInput     string
	replaySpeed     float64
	replayServer    string
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an archived telemetry log",
	Long:  "replay feeds archived telemetry rows back into a running server, preserving the recorded pacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var target archive.Target
		if replayPrintOnly {
			target = printTarget{enc: json.NewEncoder(os.Stdout)}
		} else {
			target = &httpTarget{
				url:    replayServer + "/api/telemetry/live/update",
				client: &http.Client{Timeout: 10 * time.Second},
			}
		}
		return archive.ReplayLogFile(replayInput, target, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to archived telemetry log (JSONL)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().StringVar(&replayServer, "server", "http://localhost:8000", "Server base URL to replay into")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of posting to the server")
	replayCmd.MarkFlagRequired("input")
}

// printTarget writes replayed states to STDOUT as JSON lines.
type printTarget struct {
	enc *json.Encoder
}

func (p printTarget) UpdateTelemetry(d telemetry.DroneState) error {
	return p.enc.Encode(d)
}

// httpTarget posts replayed states to a server's live update endpoint.
type httpTarget struct {
	url    string
	client *http.Client
}

func (h *httpTarget) UpdateTelemetry(d telemetry.DroneState) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update rejected for %s: %s", d.ID, resp.Status)
	}
	return nil
}
