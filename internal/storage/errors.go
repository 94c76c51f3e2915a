package storage

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a natural key is already taken by a
	// different row.
	ErrDuplicateKey = errors.New("duplicate natural key")

	// ErrInvalidInput is returned for rows a store refuses to write.
	ErrInvalidInput = errors.New("invalid input")
)
