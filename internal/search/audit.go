// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// WarningKind classifies an audit warning.
type WarningKind string

const (
	// WarnMissingIdentifier marks a fetched record with no resolvable
	// identifier; it is kept in handsearch results but excluded from
	// identifier-keyed output.
	WarnMissingIdentifier WarningKind = "missing-identifier"

	// WarnSkippedReference marks a citation edge whose far-end work had no
	// identifier; the edge is excluded from traversal.
	WarnSkippedReference WarningKind = "skipped-reference"

	// WarnNoCitationMetadata marks a seed the service holds no citation
	// metadata for.
	WarnNoCitationMetadata WarningKind = "no-citation-metadata"
)

// Warning is one coverage-loss event observed during a run. Warnings never
// abort a run; they are accumulated so a caller can assess completeness.
type Warning struct {
	Kind   WarningKind
	Seed   types.Identifier
	Detail string
}

func (w Warning) String() string {
	if w.Seed != "" {
		return fmt.Sprintf("%s (seed %s): %s", w.Kind, w.Seed, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// SeedFailure records one seed whose fetch terminated in a non-retryable or
// retry-exhausted error. Other seeds continue.
type SeedFailure struct {
	Seed types.Identifier
	Err  error
}

// Audit is the per-run audit log returned alongside a result collection.
// It is scoped to one run only and safe for concurrent appends.
type Audit struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time

	mu       sync.Mutex
	warnings []Warning
	failures []SeedFailure
}

// NewAudit starts an audit log for a fresh run.
func NewAudit() *Audit {
	return &Audit{RunID: uuid.New(), Started: time.Now()}
}

// Warn appends one warning.
func (a *Audit) Warn(w Warning) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.warnings = append(a.warnings, w)
}

// Fail records one seed failure.
func (a *Audit) Fail(seed types.Identifier, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, SeedFailure{Seed: seed, Err: err})
}

// Warnings returns a copy of the accumulated warnings.
func (a *Audit) Warnings() []Warning {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Warning, len(a.warnings))
	copy(out, a.warnings)
	return out
}

// Failures returns a copy of the per-seed failures.
func (a *Audit) Failures() []SeedFailure {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]SeedFailure, len(a.failures))
	copy(out, a.failures)
	return out
}

func (a *Audit) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Finished = time.Now()
}
