package matching

import "errors"

// Scoring backend errors. Scorers wrap these so callers can map them with
// errors.Is.
var (
	ErrRateLimited    = errors.New("scoring backend rate limited")
	ErrQuotaExhausted = errors.New("scoring backend quota exhausted")
	ErrScoringFailed  = errors.New("scoring failed")
)
