// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-trawler/pkg/types"
)

// QueryFile is the on-disk representation of a finished search: what was
// asked and which identifiers came back. A reviewer can save a run to a
// file and reload it later without re-querying the service.
type QueryFile struct {
	Kind      string           `yaml:"kind"`
	Service   string           `yaml:"service"`
	Spec      *types.QuerySpec `yaml:"spec,omitempty"`
	Seeds     []string         `yaml:"seeds,omitempty"`
	Direction string           `yaml:"direction,omitempty"`

	Identifiers []string     `yaml:"identifiers"`
	Summary     QuerySummary `yaml:"summary"`
}

// QuerySummary stores result statistics and the run provenance.
type QuerySummary struct {
	RunID        string    `yaml:"run_id"`
	Total        int       `yaml:"total"`
	Warnings     []string  `yaml:"warnings,omitempty"`
	SeedFailures []string  `yaml:"seed_failures,omitempty"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// NewQueryFile projects a finished run into its serializable form. The
// extract function resolves each record's identifier (an adapter's
// ExtractIdentifier); records without one are counted in Total but omitted
// from the identifier list.
func NewQueryFile(kind, serviceName string, res *Result, extract func(types.RawRecord) (types.Identifier, bool)) *QueryFile {
	qf := &QueryFile{
		Kind:    kind,
		Service: serviceName,
		Summary: QuerySummary{
			RunID:     res.Audit.RunID.String(),
			Total:     res.Collection.Size(),
			Timestamp: time.Now(),
		},
	}
	for _, rec := range res.Collection.Records() {
		if id, ok := extract(rec); ok {
			qf.Identifiers = append(qf.Identifiers, string(id))
		}
	}
	for _, w := range res.Audit.Warnings() {
		qf.Summary.Warnings = append(qf.Summary.Warnings, w.String())
	}
	for _, f := range res.Audit.Failures() {
		qf.Summary.SeedFailures = append(qf.Summary.SeedFailures, fmt.Sprintf("%s: %v", f.Seed, f.Err))
	}
	return qf
}

// Write saves the query file as YAML.
func (qf *QueryFile) Write(path string) error {
	data, err := yaml.Marshal(qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	return &qf, nil
}
