// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"sync"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// ErrFrozen is returned on any mutation of a frozen collection.
var ErrFrozen = errors.New("collection is frozen")

// Collection is an ordered, deduplicated store of raw records. Identity is
// keyed by canonical identifier: a second append of a known identifier is a
// no-op, while records without a resolvable identifier always count once
// each. Appends are serialized internally so concurrent seed workers can
// share one collection. Once frozen it is read-only.
type Collection struct {
	mu      sync.Mutex
	frozen  bool
	records []types.RawRecord
	seen    map[types.Identifier]struct{}
}

// NewCollection returns an empty, unfrozen collection.
func NewCollection() *Collection {
	return &Collection{seen: make(map[types.Identifier]struct{})}
}

// Append adds rec keyed by id. An empty id means the record has no
// resolvable identifier and is stored without dedup. The added return is
// false when the identifier was already present.
func (c *Collection) Append(rec types.RawRecord, id types.Identifier) (added bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return false, ErrFrozen
	}
	if id != "" {
		if _, dup := c.seen[id]; dup {
			return false, nil
		}
		c.seen[id] = struct{}{}
	}
	c.records = append(c.records, rec)
	return true, nil
}

// Size returns the number of stored records.
func (c *Collection) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Contains reports whether id has been appended.
func (c *Collection) Contains(id types.Identifier) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok
}

// Freeze transitions the collection to read-only. Freezing twice is an
// error so a completed orchestrator run cannot be reused by accident.
func (c *Collection) Freeze() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozen
	}
	c.frozen = true
	return nil
}

// Frozen reports whether Freeze has been called.
func (c *Collection) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// Records returns the stored records in insertion order. The returned slice
// is a copy, so callers can iterate any number of times without observing
// later mutation.
func (c *Collection) Records() []types.RawRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.RawRecord, len(c.records))
	copy(out, c.records)
	return out
}
