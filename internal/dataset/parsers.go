// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset transforms frozen result collections into typed,
// exportable datasets: identifier lists, tabular citation records, and
// RIS tagged records. Transformers are stateless; each dataset owns its
// rows and outlives the collection it was built from.
package dataset

import (
	"fmt"
	"strings"
)

// FieldParser maps one raw field value to a normalized string. A nil
// parser means identity passthrough.
type FieldParser func(v any) string

// Passthrough stringifies a raw value without interpretation. Plain
// strings are returned as-is.
func Passthrough(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ParseDate renders a Crossref date object ({"date-parts": [[2021, 3, 4]]})
// as "2021-3-4". Missing parts shorten the output.
func ParseDate(v any) string {
	parts := dateParts(v)
	if len(parts) == 0 {
		return ""
	}
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(strs, "-")
}

// ParseYear renders just the year of a Crossref date object.
func ParseYear(v any) string {
	parts := dateParts(v)
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("%d", parts[0])
}

func dateParts(v any) []int {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	outer, ok := obj["date-parts"].([]any)
	if !ok || len(outer) == 0 {
		return nil
	}
	inner, ok := outer[0].([]any)
	if !ok {
		return nil
	}
	parts := make([]int, 0, len(inner))
	for _, p := range inner {
		if f, ok := p.(float64); ok {
			parts = append(parts, int(f))
		}
	}
	return parts
}

// ParseAuthors renders a Crossref author array as a comma-separated list of
// family names. Entries without a family name are skipped.
func ParseAuthors(v any) string {
	names := familyNames(v)
	return strings.Join(names, ", ")
}

// AuthorNames renders a Crossref author array as "Family, Given" entries,
// one per author, for formats that repeat an author tag per person.
func AuthorNames(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, a := range arr {
		obj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		family, _ := obj["family"].(string)
		given, _ := obj["given"].(string)
		switch {
		case family != "" && given != "":
			names = append(names, family+", "+given)
		case family != "":
			names = append(names, family)
		}
	}
	return names
}

func familyNames(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, a := range arr {
		if obj, ok := a.(map[string]any); ok {
			if family, ok := obj["family"].(string); ok && family != "" {
				names = append(names, family)
			}
		}
	}
	return names
}

// ParseTitle renders a Crossref title array (["Some  title"]) with interior
// whitespace collapsed. Plain strings are accepted too.
func ParseTitle(v any) string {
	var title string
	switch t := v.(type) {
	case string:
		title = t
	case []any:
		if len(t) == 0 {
			return ""
		}
		title, _ = t[0].(string)
	default:
		return ""
	}
	return strings.Join(strings.Fields(title), " ")
}
