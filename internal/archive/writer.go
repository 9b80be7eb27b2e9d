// Package archive persists accepted live telemetry and replays recorded
// sessions. Writers implement registry.Writer.
package archive

import "dronewatch/internal/telemetry"

// Writer handles archive rows one at a time.
type Writer interface {
	Write(telemetry.ArchiveRow) error
}

// Optional: writers may support batch mode.
type batchWriter interface {
	WriteBatch([]telemetry.ArchiveRow) error
}

// MultiWriter fans rows out to several writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a MultiWriter.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a row to all writers.
func (mw *MultiWriter) Write(row telemetry.ArchiveRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple rows to all writers, using batch mode where
// supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}
