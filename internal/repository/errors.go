package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInvalidTransition = errors.New("invalid status transition")
)
