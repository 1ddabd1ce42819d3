// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// cociAPIBase is the OpenCitations COCI index root. Declared as a var so
// tests can substitute an httptest server.
var cociAPIBase = "https://opencitations.net/index/coci/api/v1"

// COCIAdapter queries the OpenCitations COCI citation index. COCI is a pure
// citation graph: references/{doi} lists backward edges and citations/{doi}
// lists forward edges, each as a flat JSON array of citation rows. There is
// no filtered works index, so handsearch is unsupported.
type COCIAdapter struct {
	userAgent string
}

// NewCOCIAdapter builds a COCI adapter with headers from cfg.
func NewCOCIAdapter(cfg types.HTTPConfig) *COCIAdapter {
	return &COCIAdapter{userAgent: cfg.UserAgent}
}

func (a *COCIAdapter) Name() string             { return "coci" }
func (a *COCIAdapter) MaxBatchSize() int        { return 0 }
func (a *COCIAdapter) DefaultBatchSize() int    { return 0 }
func (a *COCIAdapter) SupportsHandsearch() bool { return false }
func (a *COCIAdapter) SupportsCiting() bool     { return true }

// BuildPageRequest always fails: COCI exposes no filtered works index.
func (a *COCIAdapter) BuildPageRequest(ctx context.Context, spec types.QuerySpec, tok PageToken) (*http.Request, error) {
	return nil, &CapabilityError{Service: a.Name(), Operation: "handsearch"}
}

// ParsePage always fails; see BuildPageRequest.
func (a *COCIAdapter) ParsePage(body []byte) (Page, error) {
	return Page{}, &CapabilityError{Service: a.Name(), Operation: "handsearch"}
}

// BuildEdgeRequest builds a references/{doi} or citations/{doi} request.
// COCI wants the DOI verbatim in the path, slashes included.
func (a *COCIAdapter) BuildEdgeRequest(ctx context.Context, seed types.Identifier, dir Direction) (*http.Request, error) {
	endpoint := "references"
	if dir == Forward {
		endpoint = "citations"
	}
	reqURL := fmt.Sprintf("%s/%s/%s", cociAPIBase, endpoint, string(seed))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating COCI request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	return req, nil
}

// ParseEdges parses a COCI citation-row array. The far-end DOI of each row
// sits in "cited" for backward traversal and "citing" for forward. An empty
// array means COCI holds no citation metadata for the seed.
func (a *COCIAdapter) ParseEdges(body []byte, dir Direction) ([]Edge, error) {
	var rows []types.RawRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parsing COCI citation rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoEdgeMetadata
	}

	field := "cited"
	if dir == Forward {
		field = "citing"
	}

	edges := make([]Edge, 0, len(rows))
	for _, row := range rows {
		target, _ := types.CanonicalIdentifier(row.StringField(field))
		edges = append(edges, Edge{Target: target, Record: row})
	}
	return edges, nil
}

// ExtractIdentifier returns the canonical DOI of a citation row, preferring
// the row's own "doi" field and falling back to the edge fields.
func (a *COCIAdapter) ExtractIdentifier(rec types.RawRecord) (types.Identifier, bool) {
	for _, field := range []string{"doi", "cited", "citing"} {
		if v := rec.StringField(field); v != "" {
			return types.CanonicalIdentifier(v)
		}
	}
	return "", false
}
