// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-trawler/internal/search"
)

// CitationsDataset is a field-projected tabular view of a collection: one
// row per record, one column per requested field. Field selection is
// best-effort; a field missing from a record yields an empty cell.
type CitationsDataset struct {
	Fields []string

	rows [][]string
}

// NewCitationsDataset projects each record onto the ordered field list.
// parsers is a parallel list of per-field parsers; nil entries (or a nil
// list) mean passthrough.
func NewCitationsDataset(coll *search.Collection, fields []string, parsers []FieldParser) (*CitationsDataset, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("citations dataset needs at least one field")
	}
	if parsers != nil && len(parsers) != len(fields) {
		return nil, fmt.Errorf("got %d parsers for %d fields", len(parsers), len(fields))
	}

	d := &CitationsDataset{Fields: append([]string(nil), fields...)}
	for _, rec := range coll.Records() {
		row := make([]string, len(fields))
		for i, field := range fields {
			v, ok := rec.Field(field)
			if !ok {
				continue
			}
			parser := Passthrough
			if parsers != nil && parsers[i] != nil {
				parser = parsers[i]
			}
			row[i] = parser(v)
		}
		d.rows = append(d.rows, row)
	}
	return d, nil
}

// Size returns the number of rows.
func (d *CitationsDataset) Size() int { return len(d.rows) }

// Rows returns the projected rows in collection order.
func (d *CitationsDataset) Rows() [][]string {
	out := make([][]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// WriteTxt writes a tab-separated table with a header row.
func (d *CitationsDataset) WriteTxt(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.Join(d.Fields, "\t")); err != nil {
		return err
	}
	for _, row := range d.rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the table as CSV with a header row matching the
// requested field names.
func (d *CitationsDataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Fields); err != nil {
		return err
	}
	for _, row := range d.rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
