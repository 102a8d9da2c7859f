// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors, wrapped with fmt.Errorf("...: %w") by callers.
var (
	// Window read errors
	ErrInsufficientData = errors.New("netcarve: insufficient data")

	// Output errors. Fatal to the run.
	ErrOutputIO = errors.New("netcarve: output write failed")

	// Image errors
	ErrImageOpen  = errors.New("netcarve: cannot open image")
	ErrImageEmpty = errors.New("netcarve: image is empty")

	// Configuration errors
	ErrConfigInvalid = errors.New("netcarve: invalid configuration")
)
