package scrub

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedPlaceholder reports a template referencing a placeholder
	// outside the fixed vocabulary. Fatal at compile time.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrInvalidPattern reports a pattern that is empty or not a valid
	// regular expression after placeholder expansion.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// FileError wraps an I/O or rewrite failure with the file it occurred in.
// The failing file's temp output is left behind and must be discarded by the
// caller; files completed before it remain rewritten.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to process %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
