// Package sentinel holds the store-level errors services translate into
// domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound: no row for the id, state or code.
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate key, or a conditional write lost to a concurrent
	// writer (status changed, offer already claimed).
	ErrConflict = errors.New("conflict")
)
