// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-trawler/internal/fetch"
	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// RISField is one tagged line of an RIS record.
type RISField struct {
	Tag   string
	Value string
}

// ExtraField maps one raw record field onto a caller-chosen RIS tag with a
// caller-chosen parser (nil means passthrough).
type ExtraField struct {
	Field  string
	Tag    string
	Parser FieldParser
}

// risTypes maps Crossref work types onto RIS reference types.
var risTypes = map[string]string{
	"journal-article":     "JOUR",
	"proceedings-article": "CPAPER",
	"book":                "BOOK",
	"book-chapter":        "CHAP",
	"dissertation":        "THES",
	"report":              "RPRT",
	"dataset":             "DATA",
}

// RISDataset maps each record of a collection to a core set of RIS tags
// (type, title, authors, year, DOI, URL, source) plus any caller-supplied
// extra fields. Building it runs one normalization pass per record per
// requested field, the most expensive transform, so it reports progress in
// the same shape as the fetch engine.
type RISDataset struct {
	records [][]RISField
}

// NewRISDataset builds the RIS projection. extract resolves each record's
// identifier for the DO tag; progress may be nil.
func NewRISDataset(coll *search.Collection, extract func(types.RawRecord) (types.Identifier, bool), extras []ExtraField, progress func(fetch.Event)) *RISDataset {
	recs := coll.Records()
	d := &RISDataset{records: make([][]RISField, 0, len(recs))}

	for i, rec := range recs {
		d.records = append(d.records, risRecord(rec, extract, extras))
		if progress != nil {
			progress(fetch.Event{Done: i + 1, Total: len(recs)})
		}
	}
	return d
}

func risRecord(rec types.RawRecord, extract func(types.RawRecord) (types.Identifier, bool), extras []ExtraField) []RISField {
	var fields []RISField
	add := func(tag, value string) {
		if value != "" {
			fields = append(fields, RISField{Tag: tag, Value: value})
		}
	}

	risType := "GEN"
	if t, ok := risTypes[rec.StringField("type")]; ok {
		risType = t
	}
	fields = append(fields, RISField{Tag: "TY", Value: risType})

	if v, ok := rec.Field("title"); ok {
		add("TI", ParseTitle(v))
	}
	if v, ok := rec.Field("author"); ok {
		for _, name := range AuthorNames(v) {
			add("AU", name)
		}
	}
	if v, ok := rec.Field("issued"); ok {
		add("PY", ParseYear(v))
	}
	if id, ok := extract(rec); ok {
		add("DO", string(id))
	}
	add("UR", rec.StringField("URL"))
	if v, ok := rec.Field("container-title"); ok {
		add("T2", ParseTitle(v))
	}

	for _, ex := range extras {
		v, ok := rec.Field(ex.Field)
		if !ok {
			continue
		}
		parser := Passthrough
		if ex.Parser != nil {
			parser = ex.Parser
		}
		add(ex.Tag, parser(v))
	}

	return fields
}

// Size returns the number of RIS records.
func (d *RISDataset) Size() int { return len(d.records) }

// Records returns the tagged records in collection order.
func (d *RISDataset) Records() [][]RISField {
	out := make([][]RISField, len(d.records))
	for i, r := range d.records {
		out[i] = append([]RISField(nil), r...)
	}
	return out
}

// Write renders the dataset in RIS syntax: "TAG  - value" lines, each
// record closed by an ER tag and separated by a blank line.
func (d *RISDataset) Write(w io.Writer) error {
	for _, rec := range d.records {
		for _, f := range rec {
			if _, err := fmt.Fprintf(w, "%s  - %s\n", f.Tag, f.Value); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "ER  - \n\n"); err != nil {
			return err
		}
	}
	return nil
}

// TransformRequester is the content-negotiation surface of an adapter that
// can render works as RIS server-side (Crossref's transform endpoint).
type TransformRequester interface {
	Name() string
	BuildTransformRequest(ctx context.Context, id types.Identifier) (*http.Request, error)
}

// FetchNegotiatedRIS fetches the server-rendered RIS form of each
// identifier through the engine and concatenates the records. Identifiers
// that fail are skipped and their errors joined into the returned error;
// the text of the successful ones is still returned.
func FetchNegotiatedRIS(ctx context.Context, eng *fetch.Engine, tr TransformRequester, ids []types.Identifier, progress func(fetch.Event)) (string, error) {
	var b strings.Builder
	var errs []error

	for i, id := range ids {
		req, err := tr.BuildTransformRequest(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		body, err := eng.Do(ctx, req, tr.Name(), "transform "+string(id), 1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.WriteString(strings.TrimSpace(string(body)))
		b.WriteString("\n\n")
		if progress != nil {
			progress(fetch.Event{Done: i + 1, Total: len(ids)})
		}
	}
	return b.String(), errors.Join(errs...)
}
