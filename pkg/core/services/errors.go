package services

import "errors"

// ErrInvalidInput is returned when local validation fails before any store call
var ErrInvalidInput = errors.New("invalid input")
