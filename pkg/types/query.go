// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// QuerySpec describes one handsearch query: filter predicates plus the
// pagination policy. It is constructed once per search and never mutated
// during execution. Validation happens in internal/search before any
// network activity.
type QuerySpec struct {
	// Collection is the journal identifier (ISSN) to search within.
	Collection string `json:"collection" yaml:"collection" validate:"required"`

	// WorkType restricts results to one Crossref work type
	// (e.g. "journal-article").
	WorkType string `json:"work_type,omitempty" yaml:"work_type,omitempty"`

	// Keywords are free-text search terms, combined into one query string.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// From and Until bound the publication date range, inclusive.
	// Zero values leave the corresponding bound open.
	From  time.Time `json:"from,omitempty" yaml:"from,omitempty"`
	Until time.Time `json:"until,omitempty" yaml:"until,omitempty"`

	// Select is the field-selection allow-list. When non-empty, the service
	// is asked to return only these fields per record.
	Select []string `json:"select,omitempty" yaml:"select,omitempty"`

	// BatchSize is the number of records requested per page. Bounded above
	// by the adapter's documented maximum; 0 uses the adapter default.
	BatchSize int `json:"batch_size" yaml:"batch_size" validate:"gte=0"`

	// SortOrder is "asc" or "desc" by publication date.
	SortOrder string `json:"sort_order,omitempty" yaml:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// HasDateRange reports whether either date bound is set.
func (q QuerySpec) HasDateRange() bool {
	return !q.From.IsZero() || !q.Until.IsZero()
}
