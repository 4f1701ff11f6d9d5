package services

import "errors"

var (
	// ErrInvalidSymbol is returned for a symbol that cannot name a snapshot file
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrNoContracts is returned when an expiry filter leaves nothing to score
	ErrNoContracts = errors.New("no contracts for expiry")

	// ErrSnapshotTooLarge is returned when a snapshot file exceeds the size cap
	ErrSnapshotTooLarge = errors.New("snapshot file too large")
)
