// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// DOIDataset projects a result collection down to its identifiers.
// Records lacking an identifier are omitted; Omitted reports how many, so
// callers can assess coverage loss.
type DOIDataset struct {
	identifiers []types.Identifier

	Omitted int
}

// NewDOIDataset builds the projection. extract resolves each record's
// identifier, typically an adapter's ExtractIdentifier.
func NewDOIDataset(coll *search.Collection, extract func(types.RawRecord) (types.Identifier, bool)) *DOIDataset {
	d := &DOIDataset{}
	for _, rec := range coll.Records() {
		id, ok := extract(rec)
		if !ok {
			d.Omitted++
			continue
		}
		d.identifiers = append(d.identifiers, id)
	}
	return d
}

// Size returns the number of identifiers in the dataset.
func (d *DOIDataset) Size() int { return len(d.identifiers) }

// Identifiers returns the projected identifiers in collection order.
func (d *DOIDataset) Identifiers() []types.Identifier {
	out := make([]types.Identifier, len(d.identifiers))
	copy(out, d.identifiers)
	return out
}

// WriteTxt writes one identifier per line.
func (d *DOIDataset) WriteTxt(w io.Writer) error {
	for _, id := range d.identifiers {
		if _, err := fmt.Fprintln(w, string(id)); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes a single-column CSV with a DOI header row.
func (d *DOIDataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"DOI"}); err != nil {
		return err
	}
	for _, id := range d.identifiers {
		if err := cw.Write([]string{string(id)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
