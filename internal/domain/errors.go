package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced device or anomaly does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition is returned when a resolution action is
	// attempted from a terminal or disallowed anomaly status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrDuplicateAnomaly is returned by the anomaly store when an insert
	// collides with the dedup uniqueness constraint. Callers treat it as a
	// benign "already recorded", never as a failure.
	ErrDuplicateAnomaly = errors.New("equivalent anomaly already exists")
)
