package service

import "errors"

// ErrInvalidInput marks caller mistakes: malformed payloads, unknown enum
// values, references to users or products that do not exist. Handlers map
// it to 400 instead of 500.
var ErrInvalidInput = errors.New("invalid input")
