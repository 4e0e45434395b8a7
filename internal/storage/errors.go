package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrHasDependencies is returned when attempting to delete a resource that has dependent records.
var ErrHasDependencies = errors.New("resource has dependent records")
