package neuralnet

import "github.com/pkg/errors"

// Errors returned by the engine. Call sites wrap them with context, so test
// with errors.Is.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNotFinalized      = errors.New("network not finalized")
	ErrInvalidState      = errors.New("invalid network state")
	ErrIO                = errors.New("model i/o failure")
	ErrFormat            = errors.New("malformed model file")
)
