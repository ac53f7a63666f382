package domain

import "errors"

// Expected business conditions. Callers dispatch with errors.Is; none of
// these is fatal to the engine — the worst outcome is one failed operation.
var (
	ErrNotFound         = errors.New("order not found")
	ErrAlreadyClaimed   = errors.New("order already claimed")
	ErrNotClaimed       = errors.New("order not claimed")
	ErrConflict         = errors.New("version conflict")
	ErrStoreUnavailable = errors.New("order store unavailable")
	ErrValidation       = errors.New("validation failed")
)
