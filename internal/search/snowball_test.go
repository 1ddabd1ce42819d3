// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// edgeServer serves citation rows per seed. A seed absent from the map gets
// an empty array (no citation metadata); a seed mapped to nil gets HTTP 404.
func edgeServer(t *testing.T, edges map[string][]types.RawRecord) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seed := strings.TrimPrefix(r.URL.Path, "/edges/")
		rows, ok := edges[seed]
		if ok && rows == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rows == nil {
			rows = []types.RawRecord{}
		}
		json.NewEncoder(w).Encode(rows)
	}))
}

func TestSnowballMergesSeedsWithDedup(t *testing.T) {
	srv := edgeServer(t, map[string][]types.RawRecord{
		"10.1000/s1": {{"doi": "10.1000/a"}, {"doi": "10.1000/shared"}},
		"10.1000/s2": {{"doi": "10.1000/b"}, {"doi": "10.1000/SHARED"}},
	})
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad, []string{"10.1000/s1", "10.1000/s2"},
		service.Backward, types.SnowballConfig{Workers: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	res, err := sb.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sb.Status() != StatusCompleted {
		t.Errorf("status = %v, want completed", sb.Status())
	}

	// The shared reference differs only in case between the two seeds; the
	// canonical identifier collapses it to one record.
	if res.Collection.Size() != 3 {
		t.Errorf("Size = %d, want 3 deduplicated works", res.Collection.Size())
	}
	ids := identifierSet(t, res, ad)
	for _, want := range []types.Identifier{"10.1000/a", "10.1000/b", "10.1000/shared"} {
		if !ids[want] {
			t.Errorf("missing %s in merged result", want)
		}
	}
}

func TestSnowballSeedOrderIndependent(t *testing.T) {
	edges := map[string][]types.RawRecord{
		"10.1000/s1": {{"doi": "10.1000/a"}, {"doi": "10.1000/c"}},
		"10.1000/s2": {{"doi": "10.1000/b"}, {"doi": "10.1000/c"}},
		"10.1000/s3": {{"doi": "10.1000/a"}, {"doi": "10.1000/b"}},
	}
	srv := edgeServer(t, edges)
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	permutations := [][]string{
		{"10.1000/s1", "10.1000/s2", "10.1000/s3"},
		{"10.1000/s3", "10.1000/s1", "10.1000/s2"},
		{"10.1000/s2", "10.1000/s3", "10.1000/s1"},
	}

	var first map[types.Identifier]bool
	for _, seeds := range permutations {
		sb, err := NewSnowball(testEngine(t), ad, seeds, service.Backward,
			types.SnowballConfig{Workers: 1}, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewSnowball(%v): %v", seeds, err)
		}
		res, err := sb.Execute(context.Background())
		if err != nil {
			t.Fatalf("Execute(%v): %v", seeds, err)
		}

		ids := identifierSet(t, res, ad)
		if first == nil {
			first = ids
			continue
		}
		if len(ids) != len(first) {
			t.Fatalf("permutation %v produced %d ids, first produced %d", seeds, len(ids), len(first))
		}
		for id := range first {
			if !ids[id] {
				t.Errorf("permutation %v missing %s", seeds, id)
			}
		}
	}
}

func TestSnowballSkipsIdentifierlessEdges(t *testing.T) {
	srv := edgeServer(t, map[string][]types.RawRecord{
		"10.1000/s1": {
			{"doi": "10.1000/a"},
			{"unstructured": "Some book nobody registered"},
		},
	})
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad, []string{"10.1000/s1"},
		service.Backward, types.SnowballConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	res, err := sb.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Collection.Size() != 1 {
		t.Errorf("Size = %d, want 1 (identifierless edge excluded)", res.Collection.Size())
	}

	warnings := res.Audit.Warnings()
	if len(warnings) != 1 || warnings[0].Kind != WarnSkippedReference {
		t.Errorf("warnings = %v, want one %s", warnings, WarnSkippedReference)
	}
	if warnings[0].Seed != "10.1000/s1" {
		t.Errorf("warning seed = %q", warnings[0].Seed)
	}
}

func TestSnowballNoCitationMetadataIsWarning(t *testing.T) {
	// "10.1000/bare" is not in the map, so the server returns [].
	srv := edgeServer(t, map[string][]types.RawRecord{
		"10.1000/s1": {{"doi": "10.1000/a"}},
	})
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad, []string{"10.1000/s1", "10.1000/bare"},
		service.Backward, types.SnowballConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	res, err := sb.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v (metadata gaps must not fail the run)", err)
	}
	if res.Collection.Size() != 1 {
		t.Errorf("Size = %d, want 1", res.Collection.Size())
	}

	warnings := res.Audit.Warnings()
	if len(warnings) != 1 || warnings[0].Kind != WarnNoCitationMetadata {
		t.Errorf("warnings = %v, want one %s", warnings, WarnNoCitationMetadata)
	}
	if len(res.Audit.Failures()) != 0 {
		t.Errorf("failures = %v, want none", res.Audit.Failures())
	}
}

func TestSnowballIsolatesSeedFailures(t *testing.T) {
	srv := edgeServer(t, map[string][]types.RawRecord{
		"10.1000/good": {{"doi": "10.1000/a"}},
		"10.1000/bad":  nil, // 404
	})
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad, []string{"10.1000/good", "10.1000/bad"},
		service.Backward, types.SnowballConfig{Workers: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	res, err := sb.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v (one healthy seed must keep the run alive)", err)
	}
	if sb.Status() != StatusCompleted {
		t.Errorf("status = %v, want completed", sb.Status())
	}
	if res.Collection.Size() != 1 {
		t.Errorf("Size = %d, want 1", res.Collection.Size())
	}

	failures := res.Audit.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].Seed != "10.1000/bad" {
		t.Errorf("failed seed = %q", failures[0].Seed)
	}
}

func TestSnowballFailsWhenAllSeedsFail(t *testing.T) {
	srv := edgeServer(t, map[string][]types.RawRecord{
		"10.1000/bad1": nil,
		"10.1000/bad2": nil,
	})
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad, []string{"10.1000/bad1", "10.1000/bad2"},
		service.Backward, types.SnowballConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	res, err := sb.Execute(context.Background())
	if err == nil {
		t.Fatal("Execute succeeded, want failure when every seed fails")
	}
	if sb.Status() != StatusFailed {
		t.Errorf("status = %v, want failed", sb.Status())
	}
	if !res.Collection.Frozen() {
		t.Error("collection not frozen on failure")
	}
	if len(res.Audit.Failures()) != 2 {
		t.Errorf("failures = %d, want 2", len(res.Audit.Failures()))
	}
}

func TestSnowballForwardUnsupportedFailsBeforeNetwork(t *testing.T) {
	// No server at all: the capability check must fire at construction.
	ad := &stubAdapter{citing: false}
	_, err := NewSnowball(testEngine(t), ad, []string{"10.1000/s1"},
		service.Forward, types.SnowballConfig{}, zerolog.Nop())

	var capErr *service.CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("err = %v, want *CapabilityError", err)
	}
}

func TestSnowballSeedValidation(t *testing.T) {
	ad := &stubAdapter{citing: true}

	tests := []struct {
		name  string
		seeds []string
	}{
		{"empty list", nil},
		{"blank seed", []string{"10.1000/a", "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnowball(testEngine(t), ad, tt.seeds, service.Backward,
				types.SnowballConfig{}, zerolog.Nop())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want *ValidationError", err)
			}
		})
	}
}

func TestSnowballCanonicalizesDuplicateSeeds(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode([]types.RawRecord{{"doi": "10.1000/a"}})
	}))
	defer srv.Close()

	ad := &stubAdapter{baseURL: srv.URL, citing: true}
	sb, err := NewSnowball(testEngine(t), ad,
		[]string{"10.1000/S1", "https://doi.org/10.1000/s1"},
		service.Backward, types.SnowballConfig{Workers: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}

	if _, err := sb.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (duplicate seeds collapse)", requests)
	}
}
