package model

import "errors"

var (
	// ErrUnknownLanguage is returned when a language identifier is outside
	// the registry's closed set.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrRunNotFound is returned when a run record is not found.
	ErrRunNotFound = errors.New("run not found")
)
