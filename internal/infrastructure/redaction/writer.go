package redaction

import (
	"io"
	"sync"
)

// Writer wraps an io.Writer and scrubs everything written through it.
// Safe for concurrent use.
type Writer struct {
	underlying io.Writer
	redactor   *Redactor
	mu         sync.Mutex
}

// NewWriter creates a redacting writer. A nil redactor passes data through.
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{
		underlying: w,
		redactor:   r,
	}
}

// Write scrubs p and writes it. It reports len(p) on success even when
// the redacted text has a different length.
func (w *Writer) Write(p []byte) (int, error) {
	if w.redactor == nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.underlying.Write(p)
	}

	redacted := []byte(w.redactor.ScrubString(string(p)))

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.underlying.Write(redacted); err != nil {
		return 0, err
	}
	return len(p), nil
}
