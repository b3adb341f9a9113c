package models

import "errors"

var (
	// ErrInputMissing means no building or zone was given.
	ErrInputMissing = errors.New("building name is required")

	// ErrBuildingNotFound means the zone directory has no such building.
	ErrBuildingNotFound = errors.New("building not found")

	// ErrStorageUnavailable means the roster or selection history could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrClassifierUnavailable means the text classifier could not be reached.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)
