// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"testing"
	"time"

	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

func TestValidateSpec(t *testing.T) {
	ad, err := service.ByName("crossref", types.HTTPConfig{})
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}

	tests := []struct {
		name      string
		spec      types.QuerySpec
		wantField string
	}{
		{"valid minimal", types.QuerySpec{Collection: "1234-5678"}, ""},
		{
			"valid full",
			types.QuerySpec{
				Collection: "1234-5678",
				WorkType:   "journal-article",
				Keywords:   []string{"exercise"},
				From:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				Until:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				Select:     []string{"DOI", "title", "author"},
				BatchSize:  500,
				SortOrder:  "asc",
			},
			"",
		},
		{"missing collection", types.QuerySpec{}, "Collection"},
		{"negative batch size", types.QuerySpec{Collection: "1234-5678", BatchSize: -1}, "BatchSize"},
		{"bad sort order", types.QuerySpec{Collection: "1234-5678", SortOrder: "sideways"}, "SortOrder"},
		{
			"until precedes from",
			types.QuerySpec{
				Collection: "1234-5678",
				From:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				Until:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			"until",
		},
		{"batch size over maximum", types.QuerySpec{Collection: "1234-5678", BatchSize: 1001}, "batch_size"},
		{"unknown select field", types.QuerySpec{Collection: "1234-5678", Select: []string{"citedby"}}, "select"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpec(tt.spec, ad)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateSpec rejected valid spec: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
