// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// crossrefAPIBase is the Crossref REST API root. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org"

const (
	crossrefMaxRows     = 1000
	crossrefDefaultRows = 20

	// risMIME is the content-negotiation type for RIS output.
	risMIME = "application/x-research-info-systems"
)

// CrossrefAdapter queries the Crossref REST API. Handsearch pages through
// journals/{issn}/works with rows/offset; backward snowball reads the
// embedded reference objects of works/{doi}. Crossref has no citing-works
// endpoint, so forward traversal is unsupported.
type CrossrefAdapter struct {
	userAgent string
	mailTo    string

	// PlusToken is an optional Crossref Plus API token, sent as the
	// Crossref-Plus-API-Token header for subscriber-level rate limits.
	PlusToken string
}

// NewCrossrefAdapter builds a Crossref adapter with polite-pool headers
// from cfg.
func NewCrossrefAdapter(cfg types.HTTPConfig) *CrossrefAdapter {
	return &CrossrefAdapter{
		userAgent: cfg.UserAgent,
		mailTo:    cfg.MailTo,
	}
}

func (a *CrossrefAdapter) Name() string             { return "crossref" }
func (a *CrossrefAdapter) MaxBatchSize() int        { return crossrefMaxRows }
func (a *CrossrefAdapter) DefaultBatchSize() int    { return crossrefDefaultRows }
func (a *CrossrefAdapter) SupportsHandsearch() bool { return true }
func (a *CrossrefAdapter) SupportsCiting() bool     { return false }

// BuildPageRequest builds one journals/{issn}/works page request.
func (a *CrossrefAdapter) BuildPageRequest(ctx context.Context, spec types.QuerySpec, tok PageToken) (*http.Request, error) {
	rows := spec.BatchSize
	if rows <= 0 {
		rows = crossrefDefaultRows
	}

	params := url.Values{
		"rows":   {strconv.Itoa(rows)},
		"offset": {strconv.Itoa(tok.Offset)},
		"sort":   {"published"},
	}

	order := spec.SortOrder
	if order == "" {
		order = "desc"
	}
	params.Set("order", order)

	if len(spec.Keywords) > 0 {
		params.Set("query", strings.Join(spec.Keywords, " "))
	}

	var filters []string
	if !spec.From.IsZero() {
		filters = append(filters, "from-pub-date:"+spec.From.Format("2006-01-02"))
	}
	if !spec.Until.IsZero() {
		filters = append(filters, "until-pub-date:"+spec.Until.Format("2006-01-02"))
	}
	if spec.WorkType != "" {
		filters = append(filters, "type:"+spec.WorkType)
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	if len(spec.Select) > 0 {
		params.Set("select", strings.Join(spec.Select, ","))
	}

	if a.mailTo != "" {
		params.Set("mailto", a.mailTo)
	}

	reqURL := fmt.Sprintf("%s/journals/%s/works?%s",
		crossrefAPIBase, url.PathEscape(spec.Collection), params.Encode())
	return a.newRequest(ctx, reqURL)
}

// crossrefEnvelope is the common message wrapper of the Crossref REST API.
type crossrefEnvelope struct {
	Message struct {
		TotalResults int               `json:"total-results"`
		Items        []types.RawRecord `json:"items"`

		// Single-work fields (works/{doi} responses).
		DOI       string            `json:"DOI"`
		Reference []types.RawRecord `json:"reference"`
	} `json:"message"`
}

// ParsePage parses one journals/{issn}/works response body.
func (a *CrossrefAdapter) ParsePage(body []byte) (Page, error) {
	var env crossrefEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Page{}, fmt.Errorf("parsing Crossref works page: %w", err)
	}
	return Page{
		Records: env.Message.Items,
		Total:   env.Message.TotalResults,
	}, nil
}

// BuildEdgeRequest builds a works/{doi} request; the reference objects
// embedded in the work record are the backward edges.
func (a *CrossrefAdapter) BuildEdgeRequest(ctx context.Context, seed types.Identifier, dir Direction) (*http.Request, error) {
	if dir == Forward {
		return nil, &CapabilityError{Service: a.Name(), Operation: "forward citation traversal"}
	}
	return a.newRequest(ctx, crossrefAPIBase+"/works/"+string(seed))
}

// ParseEdges extracts the reference objects of one works/{doi} response.
func (a *CrossrefAdapter) ParseEdges(body []byte, dir Direction) ([]Edge, error) {
	if dir == Forward {
		return nil, &CapabilityError{Service: a.Name(), Operation: "forward citation traversal"}
	}

	var env crossrefEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing Crossref work: %w", err)
	}
	if len(env.Message.Reference) == 0 {
		return nil, ErrNoEdgeMetadata
	}

	edges := make([]Edge, 0, len(env.Message.Reference))
	for _, ref := range env.Message.Reference {
		target, _ := types.CanonicalIdentifier(ref.StringField("DOI"))
		edges = append(edges, Edge{Target: target, Record: ref})
	}
	return edges, nil
}

// ExtractIdentifier returns the record's canonical DOI.
func (a *CrossrefAdapter) ExtractIdentifier(rec types.RawRecord) (types.Identifier, bool) {
	if doi := rec.StringField("DOI"); doi != "" {
		return types.CanonicalIdentifier(doi)
	}
	return types.CanonicalIdentifier(rec.StringField("doi"))
}

// BuildTransformRequest builds a content-negotiation request that asks
// Crossref to render the work as an RIS record server-side.
func (a *CrossrefAdapter) BuildTransformRequest(ctx context.Context, id types.Identifier) (*http.Request, error) {
	return a.newRequest(ctx, fmt.Sprintf("%s/works/%s/transform/%s", crossrefAPIBase, string(id), risMIME))
}

func (a *CrossrefAdapter) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Crossref request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	if a.PlusToken != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+a.PlusToken)
	}
	return req, nil
}
