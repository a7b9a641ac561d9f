package report

import "sync"

// BufferAppender keeps entries in memory. Used by tests and by the rules
// compile-check command, where no report artifact is wanted.
type BufferAppender struct {
	mu       sync.Mutex
	sections []string
	entries  []Entry
}

// NewBufferAppender returns an empty in-memory appender.
func NewBufferAppender() *BufferAppender {
	return &BufferAppender{}
}

func (a *BufferAppender) AppendSectionStart(label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sections = append(a.sections, "start:"+label)
}

func (a *BufferAppender) Append(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *BufferAppender) AppendSectionEnd(label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sections = append(a.sections, "end:"+label)
}

// Entries returns a copy of the recorded entries.
func (a *BufferAppender) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Sections returns the section markers in the order they were emitted.
func (a *BufferAppender) Sections() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.sections))
	copy(out, a.sections)
	return out
}
