// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-trawler/internal/fetch"
	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// Status is the orchestrator lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Result pairs the frozen collection of a finished run with its audit log.
// On failure the collection still holds everything accumulated before the
// error, and Err records what stopped the run.
type Result struct {
	Collection *Collection
	Audit      *Audit
	Err        error
}

// Handsearch retrieves all works in a collection that match the query
// spec's filters: one query spec, one paginated fetch, records kept in
// arrival order. Construction validates the query spec; no network activity
// happens before Execute.
type Handsearch struct {
	engine  *fetch.Engine
	adapter service.Adapter
	spec    types.QuerySpec
	log     zerolog.Logger
	status  Status
}

// NewHandsearch validates spec against the adapter and returns an idle
// orchestrator.
func NewHandsearch(eng *fetch.Engine, ad service.Adapter, spec types.QuerySpec, logger zerolog.Logger) (*Handsearch, error) {
	if !ad.SupportsHandsearch() {
		return nil, &service.CapabilityError{Service: ad.Name(), Operation: "handsearch"}
	}
	if err := ValidateSpec(spec, ad); err != nil {
		return nil, err
	}
	return &Handsearch{engine: eng, adapter: ad, spec: spec, log: logger}, nil
}

// Status returns the orchestrator state.
func (h *Handsearch) Status() Status { return h.status }

// Execute runs the search. A single correctly-paginated query cannot return
// the same record twice, but the collection still dedups by identifier as a
// defense. Records without an identifier are kept and reported through the
// audit log.
func (h *Handsearch) Execute(ctx context.Context) (*Result, error) {
	h.status = StatusRunning
	audit := NewAudit()
	coll := NewCollection()

	h.log.Info().
		Str("run_id", audit.RunID.String()).
		Str("service", h.adapter.Name()).
		Str("collection", h.spec.Collection).
		Msg("handsearch started")

	records, fetchErr := h.engine.FetchAll(ctx, h.adapter, h.spec)
	for _, rec := range records {
		id, ok := h.adapter.ExtractIdentifier(rec)
		if !ok {
			audit.Warn(Warning{Kind: WarnMissingIdentifier, Detail: "record kept without identifier"})
			id = ""
		}
		if _, err := coll.Append(rec, id); err != nil {
			audit.finish()
			h.status = StatusFailed
			return &Result{Collection: coll, Audit: audit, Err: err}, err
		}
	}

	coll.Freeze()
	audit.finish()

	if fetchErr != nil {
		h.status = StatusFailed
		h.log.Error().Err(fetchErr).Int("records", coll.Size()).Msg("handsearch failed")
		return &Result{Collection: coll, Audit: audit, Err: fetchErr}, fetchErr
	}

	h.status = StatusCompleted
	h.log.Info().Int("records", coll.Size()).Msg("handsearch completed")
	return &Result{Collection: coll, Audit: audit}, nil
}
