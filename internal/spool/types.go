package spool

import (
	"fmt"

	"github.com/raaihank/logscrub/internal/identity"
)

// Request is one queued anonymization request: the user to forget and the log
// files to rewrite. Spooled as a JSON file by whatever system owns
// user-deletion workflow.
type Request struct {
	User  identity.User `json:"user"`
	Files []string      `json:"files"`
}

// Validate checks the request before it reaches the pipeline.
func (r Request) Validate() error {
	if err := r.User.Validate(); err != nil {
		return err
	}
	if len(r.Files) == 0 {
		return fmt.Errorf("request lists no files")
	}
	return nil
}

// Suffixes appended to a request file after handling, so re-delivery and
// failures stay visible in the spool directory.
const (
	DoneSuffix   = ".done"
	FailedSuffix = ".failed"
)
