package storage

import "errors"

// Store failures are wrapped around these sentinels so callers can tell
// a transport problem from a data problem with errors.Is.
var (
	// ErrRead marks a failed read/query against the store.
	ErrRead = errors.New("store read failed")

	// ErrWrite marks a failed insert, update, or delete.
	ErrWrite = errors.New("store write failed")

	// ErrConsistency marks a state the schema forbids, e.g. two rows
	// sharing one staging timestamp. Never retried.
	ErrConsistency = errors.New("store consistency violation")

	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
)
