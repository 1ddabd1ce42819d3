// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-trawler/internal/archive"
	"github.com/pdiddy/paper-trawler/internal/dataset"
	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and re-export archived search runs",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Re-export an archived run without touching the network",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

func init() {
	archiveCmd.PersistentFlags().String("db", "paper-trawler.db", "archive database path")

	archiveShowCmd.Flags().String("out", "-", "output path ('-' for stdout)")
	archiveShowCmd.Flags().String("format", "txt", "output format (txt, csv, ris)")
	archiveShowCmd.Flags().StringSlice("fields", nil, "field projection for tabular output")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	db, _ := cmd.Flags().GetString("db")
	return archive.NewStore(db)
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("archive is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tKIND\tSERVICE\tRECORDS\tWARNINGS\tFAILURES\tCREATED")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			m.ID, m.Kind, m.Service, m.Records, m.Warnings, m.SeedFailures,
			m.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.LoadRecords(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	coll := search.NewCollection()
	for _, rec := range records {
		id, _ := extractArchived(rec)
		if _, err := coll.Append(rec, id); err != nil {
			return err
		}
	}
	coll.Freeze()

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

	format, _ := cmd.Flags().GetString("format")
	fields, _ := cmd.Flags().GetStringSlice("fields")

	switch format {
	case "txt", "csv":
		if len(fields) > 0 {
			ds, err := dataset.NewCitationsDataset(coll, fields, defaultParsers(fields))
			if err != nil {
				return err
			}
			if format == "csv" {
				return ds.WriteCSV(w)
			}
			return ds.WriteTxt(w)
		}
		ds := dataset.NewDOIDataset(coll, extractArchived)
		if format == "csv" {
			return ds.WriteCSV(w)
		}
		return ds.WriteTxt(w)
	case "ris":
		return dataset.NewRISDataset(coll, extractArchived, nil, nil).Write(w)
	default:
		return fmt.Errorf("unknown format %q (want txt, csv, or ris)", format)
	}
}

// extractArchived resolves an identifier from an archived record without
// knowing which service produced it.
func extractArchived(rec types.RawRecord) (types.Identifier, bool) {
	for _, field := range []string{"DOI", "doi", "cited", "citing"} {
		if raw := rec.StringField(field); raw != "" {
			if id, ok := types.CanonicalIdentifier(raw); ok {
				return id, true
			}
		}
	}
	return "", false
}
