// Package esierr defines the error kinds shared by every esicore package.
//
// Each kind is a sentinel usable with errors.Is; call sites wrap it with
// fmt.Errorf("...: %w", esierr.Degenerate) to attach context without losing
// the kind.
package esierr

import "errors"

var (
	// InvalidInput marks a malformed or unsupported input: missing file,
	// wrong magic, inconsistent header, bad parameter.
	InvalidInput = errors.New("invalid input")

	// Degenerate marks an input that is well-formed but empty or trivial in
	// a way that makes the operation meaningless: empty volume, empty point
	// cloud, all-background MRI, zero median distance.
	Degenerate = errors.New("degenerate input")

	// NotEnoughData marks a statistics call made with fewer samples than
	// the estimator requires.
	NotEnoughData = errors.New("not enough data")

	// OutOfRange marks a caller-supplied index outside a declared dimension.
	OutOfRange = errors.New("index out of range")

	// Cancelled marks a user abort signalled through a Gauge.
	Cancelled = errors.New("cancelled")

	// Io marks an underlying read/write failure.
	Io = errors.New("io error")
)

// Is reports whether err wraps kind, via errors.Is.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
