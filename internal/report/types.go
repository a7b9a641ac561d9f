package report

import "fmt"

// Entry is one audit record for a single rule hit on a single line.
type Entry struct {
	File        string `json:"file"`
	Line        int    `json:"line"` // 1-based
	Substituted bool   `json:"substituted"`
	Rule        string `json:"rule"`
}

// String renders the entry in the audit row format consumed by compliance
// tooling: action, line number, matched flag.
func (e Entry) String() string {
	action := "Not Replaced"
	if e.Substituted {
		action = "Replaced"
	}
	return fmt.Sprintf("%s, %d, %t", action, e.Line, true)
}

// Appender is an append-only audit sink. Implementations must be safe for
// concurrent use: entries within one file section arrive in line order from a
// single goroutine, but whole invocations may run in parallel.
type Appender interface {
	AppendSectionStart(label string)
	Append(entry Entry)
	AppendSectionEnd(label string)
}
