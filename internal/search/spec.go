// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs handsearch and snowball searches against a service
// adapter and aggregates the results into deduplicated, auditable
// collections.
package search

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// ValidationError is a bad query specification. It always surfaces before
// any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query spec: %s %s", e.Field, e.Reason)
}

// crossrefSelectFields is the allow-list of field names Crossref accepts in
// a select parameter. Unknown names fail validation rather than silently
// returning nothing.
var crossrefSelectFields = map[string]bool{
	"DOI": true, "URL": true, "ISSN": true, "abstract": true,
	"author": true, "container-title": true, "created": true,
	"editor": true, "issue": true, "issued": true, "link": true,
	"page": true, "prefix": true, "published": true,
	"published-online": true, "published-print": true, "publisher": true,
	"reference": true, "short-container-title": true, "subject": true,
	"subtitle": true, "title": true, "type": true, "volume": true,
}

var validate = validator.New()

// ValidateSpec checks a query spec against the adapter's contract. It runs
// struct-tag validation first, then the cross-field rules the tags cannot
// express: date ordering, batch-size bounds, and the select allow-list.
func ValidateSpec(spec types.QuerySpec, ad service.Adapter) error {
	if err := validate.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Reason: "failed " + verrs[0].Tag() + " constraint"}
		}
		return &ValidationError{Field: "spec", Reason: err.Error()}
	}

	if !spec.From.IsZero() && !spec.Until.IsZero() && spec.Until.Before(spec.From) {
		return &ValidationError{Field: "until", Reason: "precedes from"}
	}

	if max := ad.MaxBatchSize(); max > 0 && spec.BatchSize > max {
		return &ValidationError{
			Field:  "batch_size",
			Reason: fmt.Sprintf("%d exceeds %s maximum %d", spec.BatchSize, ad.Name(), max),
		}
	}

	for _, f := range spec.Select {
		if !crossrefSelectFields[f] {
			return &ValidationError{Field: "select", Reason: fmt.Sprintf("unknown field %q", f)}
		}
	}

	return nil
}
