package routing

import "strings"

// retryableSubstrings are the error-message fragments that mark an upstream
// connect failure as transient and worth falling through the chain for.
var retryableSubstrings = []string{
	"timeout",
	"connection",
	"temporarily",
	"rate limit",
	"too many requests",
	"500", "501", "502", "503", "504",
}

// nonRetryableSubstrings short-circuit the chain even if a retryable
// substring also matches — auth and request-shape failures will not be
// fixed by trying the next provider.
var nonRetryableSubstrings = []string{
	"401", "403", "400",
	"unauthorized",
	"forbidden",
	"invalid",
}

// IsRetryableError reports whether msg (an upstream connect failure's error
// text) should trigger a fall-through to the next provider in the chain
// rather than surfacing to the client immediately.
func IsRetryableError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, s := range nonRetryableSubstrings {
		if strings.Contains(lower, s) {
			return false
		}
	}
	for _, s := range retryableSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
