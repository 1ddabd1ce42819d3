// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-trawler/internal/fetch"
	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

const defaultSnowballWorkers = 4

// Snowball traverses the citation graph one hop out from a set of seed
// identifiers: backward collects the works each seed references, forward
// the works citing each seed. Results from all seeds merge into one
// collection deduplicated by canonical identifier, first occurrence wins.
//
// Seeds are fetched by a bounded worker pool sharing the engine's rate
// limiter, so concurrency never exceeds the service's request spacing.
// One seed's failure is isolated: the run is Failed only when every seed
// failed.
type Snowball struct {
	engine    *fetch.Engine
	adapter   service.Adapter
	seeds     []types.Identifier
	direction service.Direction
	workers   int
	log       zerolog.Logger
	status    Status
}

// NewSnowball canonicalizes the seed list and returns an idle orchestrator.
// A forward traversal against an adapter without citing-works support fails
// here with a *service.CapabilityError, before any network activity.
func NewSnowball(eng *fetch.Engine, ad service.Adapter, rawSeeds []string, dir service.Direction, cfg types.SnowballConfig, logger zerolog.Logger) (*Snowball, error) {
	if dir == service.Forward && !ad.SupportsCiting() {
		return nil, &service.CapabilityError{Service: ad.Name(), Operation: "forward citation traversal"}
	}
	if len(rawSeeds) == 0 {
		return nil, &ValidationError{Field: "seeds", Reason: "is empty"}
	}

	seeds := make([]types.Identifier, 0, len(rawSeeds))
	seen := make(map[types.Identifier]struct{}, len(rawSeeds))
	for _, raw := range rawSeeds {
		id, ok := types.CanonicalIdentifier(raw)
		if !ok {
			return nil, &ValidationError{Field: "seeds", Reason: fmt.Sprintf("contains blank identifier %q", raw)}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		seeds = append(seeds, id)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultSnowballWorkers
	}

	return &Snowball{
		engine:    eng,
		adapter:   ad,
		seeds:     seeds,
		direction: dir,
		workers:   workers,
		log:       logger,
	}, nil
}

// Status returns the orchestrator state.
func (s *Snowball) Status() Status { return s.status }

// Execute runs the traversal. Edges whose far-end work lacks an identifier
// are excluded and recorded as skipped-reference warnings; the same policy
// applies in both directions. Cancelling ctx stops new seed fetches
// promptly and leaves the partial collection valid.
func (s *Snowball) Execute(ctx context.Context) (*Result, error) {
	s.status = StatusRunning
	audit := NewAudit()
	coll := NewCollection()

	s.log.Info().
		Str("run_id", audit.RunID.String()).
		Str("service", s.adapter.Name()).
		Str("direction", s.direction.String()).
		Int("seeds", len(s.seeds)).
		Msg("snowball started")

	seedCh := make(chan types.Identifier)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seedCh {
				s.traverseSeed(ctx, seed, coll, audit)
			}
		}()
	}

feed:
	for i, seed := range s.seeds {
		select {
		case <-ctx.Done():
			for _, unfed := range s.seeds[i:] {
				audit.Fail(unfed, ctx.Err())
			}
			break feed
		case seedCh <- seed:
		}
	}
	close(seedCh)
	wg.Wait()

	coll.Freeze()
	audit.finish()

	failures := audit.Failures()
	if len(failures) >= len(s.seeds) {
		err := fmt.Errorf("all %d seeds failed: %w", len(s.seeds), failures[0].Err)
		s.status = StatusFailed
		s.log.Error().Err(err).Msg("snowball failed")
		return &Result{Collection: coll, Audit: audit, Err: err}, err
	}

	s.status = StatusCompleted
	s.log.Info().
		Int("records", coll.Size()).
		Int("seed_failures", len(failures)).
		Int("warnings", len(audit.Warnings())).
		Msg("snowball completed")
	return &Result{Collection: coll, Audit: audit}, nil
}

// traverseSeed fetches one seed's edges and merges them. First occurrence
// of an identifier wins; later duplicates are discarded, not merged
// field-by-field.
func (s *Snowball) traverseSeed(ctx context.Context, seed types.Identifier, coll *Collection, audit *Audit) {
	if ctx.Err() != nil {
		audit.Fail(seed, ctx.Err())
		return
	}

	edges, err := s.engine.FetchEdges(ctx, s.adapter, seed, s.direction)
	if errors.Is(err, service.ErrNoEdgeMetadata) {
		audit.Warn(Warning{Kind: WarnNoCitationMetadata, Seed: seed,
			Detail: s.adapter.Name() + " holds no citation metadata for this work"})
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("seed", string(seed)).Msg("seed fetch failed")
		audit.Fail(seed, err)
		return
	}

	for _, edge := range edges {
		if edge.Target == "" {
			audit.Warn(Warning{Kind: WarnSkippedReference, Seed: seed,
				Detail: "citation edge has no resolvable identifier"})
			continue
		}
		if _, err := coll.Append(edge.Record, edge.Target); err != nil {
			// Frozen mid-run only happens on programmer error; surface
			// loudly in the audit rather than panicking a worker.
			audit.Fail(seed, err)
			return
		}
	}
}
