package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("not found")

// Item is a single key-value record with its last write time.
type Item struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
