// Writer implementation printing status rows to STDOUT
package record

import (
	"encoding/json"
	"fmt"
)

// StdoutWriter prints status rows to STDOUT as JSON lines.
type StdoutWriter struct{}

// Write outputs a single status row.
func (w *StdoutWriter) Write(row StatusRow) error {
	data, _ := json.Marshal(row)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple status rows.
func (w *StdoutWriter) WriteBatch(rows []StatusRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}
