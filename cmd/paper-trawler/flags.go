// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-trawler/internal/archive"
	"github.com/pdiddy/paper-trawler/internal/dataset"
	"github.com/pdiddy/paper-trawler/internal/fetch"
	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/internal/secrets"
	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

// addFetchFlags registers the flags shared by every network-facing command.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("service", "crossref", "metadata service (crossref, coci)")
	cmd.Flags().Duration("timeout", 30*time.Second, "per-request HTTP timeout")
	cmd.Flags().Float64("rate", 5, "sustained requests per second against the service")
	cmd.Flags().Int("max-retries", 3, "retry attempts per page on transient failures")
	cmd.Flags().String("mailto", "", "contact email for polite-pool access (default: .secrets/mailto)")
}

// addOutputFlags registers the export flags shared by search commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "-", "output path ('-' for stdout)")
	cmd.Flags().String("format", "txt", "output format (txt, csv, ris)")
	cmd.Flags().StringSlice("fields", nil, "field projection for tabular output (e.g. DOI,title,author,issued)")
	cmd.Flags().Bool("negotiate", false, "fetch server-rendered RIS via content negotiation (crossref only)")
	cmd.Flags().String("save-query", "", "save the query and result identifiers to a YAML file")
	cmd.Flags().String("archive", "", "archive the run into this SQLite database")
	cmd.Flags().Bool("progress", false, "report paging progress on stderr")
}

// httpConfigFromFlags assembles the HTTP etiquette settings.
func httpConfigFromFlags(cmd *cobra.Command) types.HTTPConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	mailto, _ := cmd.Flags().GetString("mailto")
	mailto = secretDefault(secrets.KeyMailTo, mailto)

	ua := "paper-trawler/" + version
	if mailto != "" {
		ua = fmt.Sprintf("paper-trawler/%s (mailto:%s)", version, mailto)
	}
	return types.HTTPConfig{Timeout: timeout, UserAgent: ua, MailTo: mailto}
}

// buildEngine assembles the adapter and fetch engine from flags.
func buildEngine(cmd *cobra.Command) (service.Adapter, *fetch.Engine, error) {
	httpCfg := httpConfigFromFlags(cmd)

	name, _ := cmd.Flags().GetString("service")
	ad, err := service.ByName(name, httpCfg)
	if err != nil {
		return nil, nil, err
	}
	if cr, ok := ad.(*service.CrossrefAdapter); ok {
		cr.PlusToken = loadedSecrets[secrets.KeyCrossrefPlusToken]
	}

	rps, _ := cmd.Flags().GetFloat64("rate")
	retries, _ := cmd.Flags().GetInt("max-retries")
	eng := fetch.New(types.FetchConfig{
		HTTPConfig:        httpCfg,
		MaxRetries:        retries,
		RequestsPerSecond: rps,
	}, log)

	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		eng.SetProgress(stderrProgress("pages"))
	}
	return ad, eng, nil
}

// stderrProgress returns a progress listener that rewrites one stderr line.
func stderrProgress(unit string) func(fetch.Event) {
	return func(ev fetch.Event) {
		if ev.Total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d", unit, ev.Done, ev.Total)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s %d", unit, ev.Done)
		}
		if ev.Done == ev.Total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// defaultParsers picks the normalizing parser for well-known Crossref
// fields; unknown fields pass through raw.
func defaultParsers(fields []string) []dataset.FieldParser {
	parsers := make([]dataset.FieldParser, len(fields))
	for i, f := range fields {
		switch f {
		case "title", "container-title", "short-container-title", "subtitle":
			parsers[i] = dataset.ParseTitle
		case "author", "editor":
			parsers[i] = dataset.ParseAuthors
		case "issued", "created", "published", "published-print", "published-online":
			parsers[i] = dataset.ParseDate
		}
	}
	return parsers
}

// writeResult exports a finished run per the output flags and records it
// to the query file and archive when asked.
func writeResult(cmd *cobra.Command, kind string, spec any, ad service.Adapter, eng *fetch.Engine, res *search.Result) error {
	out, _ := cmd.Flags().GetString("out")
	w := io.Writer(os.Stdout)
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := exportDataset(cmd, ad, eng, res, w); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save-query"); path != "" {
		qf := search.NewQueryFile(kind, ad.Name(), res, ad.ExtractIdentifier)
		if err := qf.Write(path); err != nil {
			return err
		}
	}

	if db, _ := cmd.Flags().GetString("archive"); db != "" {
		store, err := archive.NewStore(db)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRun(cmd.Context(), kind, ad.Name(), spec, res, ad.ExtractIdentifier); err != nil {
			return err
		}
		log.Info().Str("run_id", res.Audit.RunID.String()).Str("db", db).Msg("run archived")
	}

	for _, warning := range res.Audit.Warnings() {
		log.Warn().Msg(warning.String())
	}
	for _, failure := range res.Audit.Failures() {
		log.Warn().Str("seed", string(failure.Seed)).Err(failure.Err).Msg("seed failed")
	}
	return nil
}

func exportDataset(cmd *cobra.Command, ad service.Adapter, eng *fetch.Engine, res *search.Result, w io.Writer) error {
	format, _ := cmd.Flags().GetString("format")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	showProgress, _ := cmd.Flags().GetBool("progress")

	switch format {
	case "txt", "csv":
		if len(fields) > 0 {
			ds, err := dataset.NewCitationsDataset(res.Collection, fields, defaultParsers(fields))
			if err != nil {
				return err
			}
			if format == "csv" {
				return ds.WriteCSV(w)
			}
			return ds.WriteTxt(w)
		}
		ds := dataset.NewDOIDataset(res.Collection, ad.ExtractIdentifier)
		if ds.Omitted > 0 {
			log.Warn().Int("omitted", ds.Omitted).Msg("records without identifiers omitted from identifier output")
		}
		if format == "csv" {
			return ds.WriteCSV(w)
		}
		return ds.WriteTxt(w)

	case "ris":
		var progress func(fetch.Event)
		if showProgress {
			progress = stderrProgress("records")
		}

		if negotiate, _ := cmd.Flags().GetBool("negotiate"); negotiate {
			tr, ok := ad.(dataset.TransformRequester)
			if !ok {
				return fmt.Errorf("service %s does not support RIS content negotiation", ad.Name())
			}
			ids := dataset.NewDOIDataset(res.Collection, ad.ExtractIdentifier).Identifiers()
			text, err := dataset.FetchNegotiatedRIS(cmd.Context(), eng, tr, ids, progress)
			if text != "" {
				if _, werr := io.WriteString(w, text); werr != nil {
					return werr
				}
			}
			return err
		}

		ds := dataset.NewRISDataset(res.Collection, ad.ExtractIdentifier, nil, progress)
		return ds.Write(w)

	default:
		return fmt.Errorf("unknown format %q (want txt, csv, or ris)", format)
	}
}
