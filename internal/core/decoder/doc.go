// Package decoder validates link, network and transport headers found at
// arbitrary offsets of a core.Window. Every function here is pure and safe to
// call from any number of goroutines; out-of-range reads are reported as
// "not a header" rather than as errors.
package decoder
