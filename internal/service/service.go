// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package service implements the adapter boundary between the search core
// and each external bibliographic metadata API. Each adapter (Crossref,
// COCI) knows one service's query, pagination, and response-shape contract;
// orchestrators depend only on the Adapter interface.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// Direction selects the citation-graph traversal direction.
type Direction int

const (
	// Backward follows references: works cited by a seed.
	Backward Direction = iota
	// Forward follows citations: works citing a seed.
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// CapabilityError reports that an adapter does not support a requested
// operation. It surfaces at orchestrator construction, before any network
// activity.
type CapabilityError struct {
	Service   string
	Operation string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("service %s does not support %s", e.Service, e.Operation)
}

// ErrNoEdgeMetadata reports that a work exists but carries no citation
// metadata in the service's index. Orchestrators record it as a warning,
// not a failure.
var ErrNoEdgeMetadata = errors.New("work has no citation metadata")

// PageToken identifies one page of a paginated query: an offset for
// offset/limit services, or an opaque cursor for cursor services.
type PageToken struct {
	Offset int
	Cursor string
}

// Page is one parsed page of raw records plus pagination metadata.
type Page struct {
	Records []types.RawRecord

	// Total is the service-reported total result count for the whole
	// query, or -1 when the service does not report one.
	Total int

	// NextCursor is the continuation token for cursor-paging services.
	// Empty for offset/limit services; the fetch engine advances the
	// offset itself from the accumulated record count.
	NextCursor string
}

// Edge is one citation-graph edge from a seed work: the raw metadata the
// service returned for the far-end work, plus its canonical identifier.
// Target is empty when the service reported no resolvable identifier for
// the edge; such edges are excluded from identifier-keyed output and
// reported through the run's audit log.
type Edge struct {
	Target types.Identifier
	Record types.RawRecord
}

// Adapter translates between the search core and one external metadata API.
type Adapter interface {
	Name() string

	// MaxBatchSize is the service's documented per-page maximum;
	// DefaultBatchSize is used when the query spec leaves BatchSize zero.
	MaxBatchSize() int
	DefaultBatchSize() int

	// SupportsHandsearch and SupportsCiting are capability probes checked
	// at orchestrator construction. Unsupported operations must fail
	// there with a *CapabilityError rather than silently returning empty.
	SupportsHandsearch() bool
	SupportsCiting() bool

	// BuildPageRequest builds the request for one page of a handsearch
	// query. ParsePage parses the corresponding response body.
	BuildPageRequest(ctx context.Context, spec types.QuerySpec, tok PageToken) (*http.Request, error)
	ParsePage(body []byte) (Page, error)

	// BuildEdgeRequest builds the request that lists citation edges for
	// one seed in the given direction. ParseEdges parses the response
	// into one Edge per far-end work, returning ErrNoEdgeMetadata when
	// the seed carries no citation metadata.
	BuildEdgeRequest(ctx context.Context, seed types.Identifier, dir Direction) (*http.Request, error)
	ParseEdges(body []byte, dir Direction) ([]Edge, error)

	// ExtractIdentifier returns the canonical identifier of a record, or
	// false when the record lacks a resolvable one.
	ExtractIdentifier(rec types.RawRecord) (types.Identifier, bool)
}

// ByName returns the adapter for a configured service name.
func ByName(name string, httpCfg types.HTTPConfig) (Adapter, error) {
	switch name {
	case "crossref":
		return NewCrossrefAdapter(httpCfg), nil
	case "coci":
		return NewCOCIAdapter(httpCfg), nil
	default:
		return nil, fmt.Errorf("unknown service %q (want crossref or coci)", name)
	}
}
