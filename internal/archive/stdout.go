package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dronewatch/internal/telemetry"
)

// StdoutWriter prints archive rows as JSON lines, one per row.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

// Write outputs a row in JSON format.
func (w *StdoutWriter) Write(row telemetry.ArchiveRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}
