package model

import "errors"

// Storage errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrNotLive         = errors.New("no live session for account")
	ErrConflict        = errors.New("changeset guard failed")
	ErrPeerNotFound    = errors.New("peer not found")
)
