package database

import "errors"

// ErrNotFound is returned when no row matches the given identifier. Handlers
// map it to 404; every other repository error surfaces as 500.
var ErrNotFound = errors.New("record not found")
