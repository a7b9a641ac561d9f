package identity

import "errors"

// ErrInvalidIdentity reports a malformed user identity. Nothing is processed
// when the identity cannot be resolved.
var ErrInvalidIdentity = errors.New("invalid user identity")
