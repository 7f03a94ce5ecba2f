package storage

import "errors"

// ErrNoScans is returned when no scan records exist for a symbol
var ErrNoScans = errors.New("no scan records found")
