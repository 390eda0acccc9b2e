package services

import "errors"

var (
	// ErrAlreadyActive is returned by StartMining while the current
	// session's deadline is still in the future.
	ErrAlreadyActive = errors.New("mining session already active")
	// ErrNothingToCollect is returned by CollectNxo when no NXO has
	// accrued since the last collection.
	ErrNothingToCollect = errors.New("nothing to collect")
)
