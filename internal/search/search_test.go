// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-trawler/internal/fetch"
	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// --- stub adapter ---

// stubAdapter speaks a minimal JSON protocol against an httptest server:
// GET /page?offset=N returns {"total": T, "records": [...]}, and
// GET /edges/{seed} returns a flat array of {"doi": ...} rows.
type stubAdapter struct {
	baseURL    string
	handsearch bool
	citing     bool
}

func (s *stubAdapter) Name() string             { return "stub" }
func (s *stubAdapter) MaxBatchSize() int        { return 100 }
func (s *stubAdapter) DefaultBatchSize() int    { return 10 }
func (s *stubAdapter) SupportsHandsearch() bool { return s.handsearch }
func (s *stubAdapter) SupportsCiting() bool     { return s.citing }

func (s *stubAdapter) BuildPageRequest(ctx context.Context, spec types.QuerySpec, tok service.PageToken) (*http.Request, error) {
	url := s.baseURL + "/page?offset=" + strconv.Itoa(tok.Offset)
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

func (s *stubAdapter) ParsePage(body []byte) (service.Page, error) {
	var page struct {
		Total   int               `json:"total"`
		Records []types.RawRecord `json:"records"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return service.Page{}, err
	}
	return service.Page{Records: page.Records, Total: page.Total}, nil
}

func (s *stubAdapter) BuildEdgeRequest(ctx context.Context, seed types.Identifier, dir service.Direction) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/edges/"+string(seed), nil)
}

func (s *stubAdapter) ParseEdges(body []byte, dir service.Direction) ([]service.Edge, error) {
	var rows []types.RawRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, service.ErrNoEdgeMetadata
	}
	edges := make([]service.Edge, 0, len(rows))
	for _, row := range rows {
		id, _ := types.CanonicalIdentifier(row.StringField("doi"))
		edges = append(edges, service.Edge{Target: id, Record: row})
	}
	return edges, nil
}

func (s *stubAdapter) ExtractIdentifier(rec types.RawRecord) (types.Identifier, bool) {
	return types.CanonicalIdentifier(rec.StringField("doi"))
}

// --- helpers ---

func testEngine(t *testing.T) *fetch.Engine {
	t.Helper()
	return fetch.New(types.FetchConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second},
		MaxRetries:        1,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             10,
	}, zerolog.Nop())
}

// identifierSet collects the deduped identifiers of a result collection.
func identifierSet(t *testing.T, res *Result, ad service.Adapter) map[types.Identifier]bool {
	t.Helper()
	set := make(map[types.Identifier]bool)
	for _, rec := range res.Collection.Records() {
		if id, ok := ad.ExtractIdentifier(rec); ok {
			set[id] = true
		}
	}
	return set
}
