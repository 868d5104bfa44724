package rating

import (
	"errors"

	"github.com/okian/logoduel/internal/domain/model"
)

// Sentinel kinds for match validation errors.
var (
	ErrMissingWinner = errors.New("missing winner id")
	ErrMissingLoser  = errors.New("missing loser id")
	ErrSelfMatch     = errors.New("winner and loser must differ")
	ErrBadTimestamp  = errors.New("invalid match timestamp")
)

// ValidateMatch rejects structurally invalid records before any state is
// touched.
func ValidateMatch(m model.MatchRecord) error {
	if m.WinnerID == "" {
		return ErrMissingWinner
	}
	if m.LoserID == "" {
		return ErrMissingLoser
	}
	if m.WinnerID == m.LoserID {
		return ErrSelfMatch
	}
	if m.Timestamp <= 0 {
		return ErrBadTimestamp
	}
	return nil
}
