package netutil

import (
	"errors"
	"net"
	"net/url"
)

const maxUnwrapDepth = 4

// ShouldRetry reports whether a Telegram API call failed with a
// transient network error: timeouts and dial failures are retried,
// everything else (including HTTP-level responses) is not.
func ShouldRetry(err error) bool {
	return shouldRetry(err, maxUnwrapDepth)
}

func shouldRetry(err error, depth int) bool {
	if err == nil || depth <= 0 {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return shouldRetry(urlErr.Err, depth-1)
		}
	}

	return false
}
