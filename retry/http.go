package retry

import (
	"fmt"
	"net/http"
	"slices"
)

// StatusError reports an HTTP response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// CheckStatus returns nil for 2xx, a retryable error for 5xx and 429, and a
// permanent error for everything else.
func CheckStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}

	err := &StatusError{Code: code}
	if code >= 500 || code == http.StatusTooManyRequests {
		return err
	}
	return Permanent(err)
}

// CheckStatusStrict returns nil for 2xx. Any other status is permanent unless
// it is listed in retryable.
func CheckStatusStrict(code int, retryable ...int) error {
	if code >= 200 && code < 300 {
		return nil
	}

	err := &StatusError{Code: code}
	if slices.Contains(retryable, code) {
		return err
	}
	return Permanent(err)
}
