package service

import "errors"

// Sentinel kinds for vote store errors.
var (
	ErrInvalidVote = errors.New("invalid vote")
	ErrNotInRoster = errors.New("participant not in active roster")
)
