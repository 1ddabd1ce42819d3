// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

func extractDOI(rec types.RawRecord) (types.Identifier, bool) {
	return types.CanonicalIdentifier(rec.StringField("DOI"))
}

func testCollection(t *testing.T) *search.Collection {
	t.Helper()
	coll := search.NewCollection()
	coll.Append(types.RawRecord{
		"DOI":             "10.1000/a",
		"type":            "journal-article",
		"title":           []any{"First  Paper"},
		"container-title": []any{"Journal of Tests"},
		"author": []any{
			map[string]any{"family": "Curie", "given": "Marie"},
			map[string]any{"family": "Dirac", "given": "Paul"},
		},
		"issued": dateObj(2021, 3, 4),
		"URL":    "https://doi.org/10.1000/a",
	}, "10.1000/a")
	coll.Append(types.RawRecord{
		"DOI":   "10.1000/b",
		"type":  "book",
		"title": []any{"Second Paper"},
	}, "10.1000/b")
	coll.Append(types.RawRecord{"title": []any{"No DOI here"}}, "")
	coll.Freeze()
	return coll
}

// --- DOIDataset ---

func TestDOIDataset(t *testing.T) {
	ds := NewDOIDataset(testCollection(t), extractDOI)

	if ds.Size() != 2 {
		t.Errorf("Size = %d, want 2", ds.Size())
	}
	if ds.Omitted != 1 {
		t.Errorf("Omitted = %d, want 1", ds.Omitted)
	}

	var txt bytes.Buffer
	if err := ds.WriteTxt(&txt); err != nil {
		t.Fatalf("WriteTxt: %v", err)
	}
	if got := txt.String(); got != "10.1000/a\n10.1000/b\n" {
		t.Errorf("txt output = %q", got)
	}

	var csvOut bytes.Buffer
	if err := ds.WriteCSV(&csvOut); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csvOut.String()), "\n")
	if len(lines) != 3 || lines[0] != "DOI" {
		t.Errorf("csv output = %q", csvOut.String())
	}
}

// --- CitationsDataset ---

func TestCitationsDataset(t *testing.T) {
	fields := []string{"DOI", "title", "author", "issued"}
	parsers := []FieldParser{nil, ParseTitle, ParseAuthors, ParseDate}

	ds, err := NewCitationsDataset(testCollection(t), fields, parsers)
	if err != nil {
		t.Fatalf("NewCitationsDataset: %v", err)
	}
	if ds.Size() != 3 {
		t.Fatalf("Size = %d, want one row per record", ds.Size())
	}

	rows := ds.Rows()
	first := rows[0]
	if first[0] != "10.1000/a" {
		t.Errorf("DOI cell = %q", first[0])
	}
	if first[1] != "First Paper" {
		t.Errorf("title cell = %q", first[1])
	}
	if first[2] != "Curie, Dirac" {
		t.Errorf("author cell = %q", first[2])
	}
	if first[3] != "2021-3-4" {
		t.Errorf("issued cell = %q", first[3])
	}

	// Missing fields project to empty cells, not errors.
	second := rows[1]
	if second[2] != "" || second[3] != "" {
		t.Errorf("missing-field cells = %q, %q, want empty", second[2], second[3])
	}

	var txt bytes.Buffer
	if err := ds.WriteTxt(&txt); err != nil {
		t.Fatalf("WriteTxt: %v", err)
	}
	if !strings.HasPrefix(txt.String(), "DOI\ttitle\tauthor\tissued\n") {
		t.Errorf("txt header = %q", strings.SplitN(txt.String(), "\n", 2)[0])
	}
}

func TestCitationsDatasetValidation(t *testing.T) {
	coll := testCollection(t)
	if _, err := NewCitationsDataset(coll, nil, nil); err == nil {
		t.Error("accepted empty field list")
	}
	if _, err := NewCitationsDataset(coll, []string{"DOI", "title"}, []FieldParser{nil}); err == nil {
		t.Error("accepted mismatched parser count")
	}
}

// --- RISDataset ---

func TestRISDataset(t *testing.T) {
	ds := NewRISDataset(testCollection(t), extractDOI, nil, nil)
	if ds.Size() != 3 {
		t.Fatalf("Size = %d, want 3", ds.Size())
	}

	var out bytes.Buffer
	if err := ds.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	text := out.String()

	for _, want := range []string{
		"TY  - JOUR\n",
		"TI  - First Paper\n",
		"AU  - Curie, Marie\n",
		"AU  - Dirac, Paul\n",
		"PY  - 2021\n",
		"DO  - 10.1000/a\n",
		"UR  - https://doi.org/10.1000/a\n",
		"T2  - Journal of Tests\n",
		"TY  - BOOK\n",
		"TY  - GEN\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("RIS output missing %q", want)
		}
	}

	if got := strings.Count(text, "ER  - \n"); got != 3 {
		t.Errorf("ER terminators = %d, want one per record", got)
	}
}

func TestRISDatasetExtras(t *testing.T) {
	extras := []ExtraField{{Field: "container-title", Tag: "JO", Parser: ParseTitle}}
	ds := NewRISDataset(testCollection(t), extractDOI, extras, nil)

	var out bytes.Buffer
	if err := ds.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(out.String(), "JO  - Journal of Tests\n") {
		t.Error("extra field not rendered")
	}
}
