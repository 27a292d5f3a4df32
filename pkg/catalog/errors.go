package catalog

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the catalog has no record for an ID.
var ErrNotFound = eris.New("catalog: not found")

// ErrUnavailable is returned by the throttled client while the fallback
// latch is set; no network call was attempted.
var ErrUnavailable = eris.New("catalog: unavailable (fallback mode)")

// RateLimitError indicates the provider quota is exhausted. The orchestrator
// trips its fallback latch on this class and skips all remaining queries.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "catalog: rate limited: " + e.Message
}

// IsRateLimited reports whether err (or anything in its chain) is a
// rate-limit-class error.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// isRateLimitMessage matches the provider's quota-exhaustion body text.
func isRateLimitMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "request limit") || strings.Contains(m, "limit reached")
}
