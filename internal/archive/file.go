package archive

import (
	"encoding/json"
	"os"

	"dronewatch/internal/telemetry"
)

// FileWriter appends archive rows to a JSONL file. The output is accepted by
// ReplayLog, so any recorded session can be fed back into a registry.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates or truncates the file at path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single row.
func (f *FileWriter) Write(row telemetry.ArchiveRow) error {
	return f.enc.Encode(row)
}

// WriteBatch logs multiple rows.
func (f *FileWriter) WriteBatch(rows []telemetry.ArchiveRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
