package avarabsp

import (
	"errors"
	"fmt"
)

// Error roots. Every error returned by the codec wraps exactly one of them.
var (
	// ErrInput covers bad paths, malformed documents and out-of-range
	// references.
	ErrInput = errors.New("input error")
	// ErrEnvironment covers file I/O failures.
	ErrEnvironment = errors.New("environment error")
)

// Input errors.
var (
	ErrNoOutputPath    = fmt.Errorf("%w: output path not set", ErrInput)
	ErrNoPolygons      = fmt.Errorf("%w: mesh has no polygons", ErrInput)
	ErrNoVertices      = fmt.Errorf("%w: mesh has no vertices", ErrInput)
	ErrMalformedJSON   = fmt.Errorf("%w: malformed avarabsp document", ErrInput)
	ErrBadTris         = fmt.Errorf("%w: tris length is not a multiple of 3", ErrInput)
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrInput)
	ErrBadColor        = fmt.Errorf("%w: invalid color value", ErrInput)
	ErrNonFinite       = fmt.Errorf("%w: NaN or infinite value", ErrInput)
)

// environmentError tags an I/O failure with ErrEnvironment.
func environmentError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrEnvironment, op, path, err)
}
