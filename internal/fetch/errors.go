// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "fmt"

// Kind classifies a fetch failure.
type Kind int

const (
	// KindRetryable marks a transient failure (network error, 5xx,
	// rate-limit signal) that the engine retries with backoff.
	KindRetryable Kind = iota

	// KindExhausted marks a transient failure that outlived the retry
	// budget.
	KindExhausted

	// KindNonRetryable marks a failure retrying cannot fix: a 4xx other
	// than 429, or a malformed response body.
	KindNonRetryable
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindExhausted:
		return "exhausted"
	default:
		return "non-retryable"
	}
}

// Error is a failed page fetch. It names the service, the originating
// query, and the failing page so that snowball callers can attribute a
// failure to one seed while sibling seeds continue.
type Error struct {
	Service string
	Query   string
	Page    int
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s fetch failed (%s, page %d, %s): %v",
		e.Service, e.Query, e.Page, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
