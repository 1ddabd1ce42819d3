// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

var handsearchCmd = &cobra.Command{
	Use:   "handsearch",
	Short: "Retrieve all works in a journal matching date and keyword filters",
	Long: `handsearch pages through every work in a bibliographic collection
(a journal identified by ISSN on Crossref), filtered by publication date
range, work type, and bibliographic keywords. The full matching set is
retrieved; nothing is sampled or ranked.`,
	Example: `  paper-trawler handsearch --issn 1234-5678 --from 2020-01-01 --until 2022-12-31
  paper-trawler handsearch --issn 1234-5678 --keywords exercise,insulin --format csv --fields DOI,title,author,issued
  paper-trawler handsearch --issn 1234-5678 --format ris --out results.ris --archive review.db`,
	RunE: runHandsearch,
}

func init() {
	addFetchFlags(handsearchCmd)
	addOutputFlags(handsearchCmd)

	handsearchCmd.Flags().String("issn", "", "ISSN of the journal to handsearch (required)")
	handsearchCmd.Flags().String("type", "", "restrict to one work type (e.g. journal-article)")
	handsearchCmd.Flags().StringSlice("keywords", nil, "bibliographic keywords, all must match")
	handsearchCmd.Flags().String("from", "", "earliest publication date (YYYY-MM-DD)")
	handsearchCmd.Flags().String("until", "", "latest publication date (YYYY-MM-DD)")
	handsearchCmd.Flags().StringSlice("select", nil, "metadata fields to request (reduces payload size)")
	handsearchCmd.Flags().Int("batch-size", 0, "records per page (0 = service default)")
	handsearchCmd.Flags().String("sort-order", "", "sort by publication date (asc, desc)")
	handsearchCmd.MarkFlagRequired("issn")

	rootCmd.AddCommand(handsearchCmd)
}

func runHandsearch(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(cmd)
	if err != nil {
		return err
	}

	ad, eng, err := buildEngine(cmd)
	if err != nil {
		return err
	}

	hs, err := search.NewHandsearch(eng, ad, spec, log)
	if err != nil {
		return err
	}

	res, execErr := hs.Execute(cmd.Context())
	if execErr != nil {
		// Export whatever was retrieved before the failure, then report it.
		if res != nil && res.Collection.Size() > 0 {
			log.Warn().Int("records", res.Collection.Size()).Msg("exporting partial results")
			if werr := writeResult(cmd, "handsearch", spec, ad, eng, res); werr != nil {
				return werr
			}
		}
		return execErr
	}

	return writeResult(cmd, "handsearch", spec, ad, eng, res)
}

// specFromFlags builds the query spec from the handsearch flags.
func specFromFlags(cmd *cobra.Command) (types.QuerySpec, error) {
	issn, _ := cmd.Flags().GetString("issn")
	workType, _ := cmd.Flags().GetString("type")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	selectFields, _ := cmd.Flags().GetStringSlice("select")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	sortOrder, _ := cmd.Flags().GetString("sort-order")

	spec := types.QuerySpec{
		Collection: issn,
		WorkType:   workType,
		Keywords:   keywords,
		Select:     selectFields,
		BatchSize:  batchSize,
		SortOrder:  sortOrder,
	}

	var err error
	if spec.From, err = parseDateFlag(cmd, "from"); err != nil {
		return types.QuerySpec{}, err
	}
	if spec.Until, err = parseDateFlag(cmd, "until"); err != nil {
		return types.QuerySpec{}, err
	}
	return spec, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --%s: %q is not a YYYY-MM-DD date", name, raw)
	}
	return t, nil
}
