package record

import (
	"encoding/json"
	"os"
)

// FileWriter writes status rows to a JSONL file.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter truncating any existing file.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write appends one row.
func (w *FileWriter) Write(row StatusRow) error {
	return w.enc.Encode(row)
}

// WriteBatch appends multiple rows.
func (w *FileWriter) WriteBatch(rows []StatusRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	return w.file.Close()
}
