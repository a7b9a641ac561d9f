package report

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// FileAppender writes the audit report to a plain-text file, one row per
// entry, with section markers around each processed log file.
type FileAppender struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewFileAppender creates (or truncates) the report file at path.
func NewFileAppender(path string) (*FileAppender, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &FileAppender{
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// AppendSectionStart marks the beginning of one log file's entries.
func (a *FileAppender) AppendSectionStart(label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.w, "Starting File %s\n", label)
}

// Append writes one audit row.
func (a *FileAppender) Append(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.w, entry.String())
}

// AppendSectionEnd marks the end of one log file's entries.
func (a *FileAppender) AppendSectionEnd(label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.w, "Completed %s\n", label)
}

// Close flushes buffered rows and closes the report file.
func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.w.Flush(); err != nil {
		a.file.Close()
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}
