package store

import "go.trai.ch/zerr"

// ErrStoreLocked is returned when a store directory is already held by another process.
var ErrStoreLocked = zerr.New("store directory is locked by another process")
