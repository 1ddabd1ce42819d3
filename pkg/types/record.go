// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-trawler core:
// canonical work identifiers, raw metadata records as returned by the
// bibliographic services, and the query/fetch configuration values that
// searches are built from.
package types

import "strings"

// Identifier is the canonical form of a DOI-like token naming one scholarly
// work. It is lower-cased and whitespace-trimmed so that equality is
// case- and whitespace-insensitive. The zero value means "no identifier".
type Identifier string

// doiURLPrefixes are stripped during canonicalization. Crossref returns bare
// DOIs, OpenAlex-style services return full doi.org URLs.
var doiURLPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// CanonicalIdentifier normalizes a raw identifier token. The second return
// is false when the token is empty after normalization.
func CanonicalIdentifier(raw string) (Identifier, bool) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, p := range doiURLPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			lower = lower[len(p):]
			break
		}
	}
	if lower == "" {
		return "", false
	}
	return Identifier(lower), true
}

// RawRecord is one metadata record exactly as a service adapter parsed it
// from a response body: a mapping from field name to arbitrary nested value.
// Records are never mutated after creation.
type RawRecord map[string]any

// Field returns the value stored under name.
func (r RawRecord) Field(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// StringField returns the value under name if it is a plain string.
func (r RawRecord) StringField(name string) string {
	if v, ok := r[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
