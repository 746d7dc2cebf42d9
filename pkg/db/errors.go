package db

import "errors"

var (
	// ErrDuplicateName is returned when another volunteer already holds the name (case-insensitive)
	ErrDuplicateName = errors.New("a volunteer with this name already exists")

	// ErrAlreadyRegistered is returned when the (volunteer, slot) pair is already registered
	ErrAlreadyRegistered = errors.New("volunteer is already registered for this slot")

	// ErrNotFound is returned when the targeted record does not exist
	ErrNotFound = errors.New("record not found")
)
