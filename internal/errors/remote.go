package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"
)

// RemoteFetchError represents a failed page fetch against a remote catalog.
// StatusCode is zero for transport level failures.
type RemoteFetchError struct {
	Provider   string
	URL        string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *RemoteFetchError) Error() string {
	msg := fmt.Sprintf("%s: fetch %s failed", e.Provider, e.URL)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with HTTP %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	return msg
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the remote side rejected the request for
// exceeding its rate limit.
func (e *RemoteFetchError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewRemoteFetchError creates a new RemoteFetchError
func NewRemoteFetchError(provider, url string, statusCode int, err error) *RemoteFetchError {
	return &RemoteFetchError{
		Provider:   provider,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// IsRemoteFetchError checks if error is a RemoteFetchError
func IsRemoteFetchError(err error) bool {
	var fetchErr *RemoteFetchError
	return stdErrors.As(err, &fetchErr)
}
