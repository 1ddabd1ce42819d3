// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests. Crossref
	// etiquette asks for a contact address in this header; see MailTo.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MailTo is an optional contact email appended for polite-pool access.
	MailTo string `json:"mailto,omitempty" yaml:"mailto,omitempty"`
}

// FetchConfig holds settings for the paginated fetch engine.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries bounds retry attempts for one page (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the base duration for exponential backoff
	// (default 1s; doubles each attempt).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// RequestsPerSecond is the sustained request rate against one service.
	// The limiter is shared across all concurrent workers (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the rate limiter burst size (default 1).
	Burst int `json:"burst" yaml:"burst"`
}

// SnowballConfig holds settings for citation-graph traversal searches.
type SnowballConfig struct {
	// Workers is the number of seeds fetched concurrently (default 4).
	// All workers share the fetch engine's rate limiter.
	Workers int `json:"workers" yaml:"workers"`
}
