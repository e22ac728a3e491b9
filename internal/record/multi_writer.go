package record

// MultiWriter fans status rows out to several writers. Errors from one
// writer do not stop delivery to the others; the first error is returned.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a fan-out writer.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write delivers the row to every writer.
func (m *MultiWriter) Write(row StatusRow) error {
	var first error
	for _, w := range m.writers {
		if err := w.Write(row); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteBatch delivers the batch, using batch mode where supported.
func (m *MultiWriter) WriteBatch(rows []StatusRow) error {
	var first error
	for _, w := range m.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil && first == nil {
				first = err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
