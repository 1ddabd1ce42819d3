// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-trawler/internal/search"
	"github.com/pdiddy/paper-trawler/internal/service"
	"github.com/pdiddy/paper-trawler/pkg/types"
)

var snowballCmd = &cobra.Command{
	Use:   "snowball [DOI...]",
	Short: "Traverse the citation graph one hop out from seed DOIs",
	Long: `snowball collects the citation neighborhood of a set of seed DOIs.

Backward traversal collects the works each seed references (Crossref or
COCI). Forward traversal collects the works that cite each seed (COCI
only; Crossref does not expose citing works). Results from all seeds
merge into one collection deduplicated by DOI.

Seeds are read from the positional arguments, from --seeds-file (one DOI
per line), or both.`,
	Example: `  paper-trawler snowball 10.1021/acs.jpcb.1c02191 10.1073/pnas.2018234118
  paper-trawler snowball --service coci --direction forward --seeds-file seeds.txt
  paper-trawler snowball --seeds-file seeds.txt --format ris --negotiate --out neighborhood.ris`,
	RunE: runSnowball,
}

func init() {
	addFetchFlags(snowballCmd)
	addOutputFlags(snowballCmd)

	snowballCmd.Flags().String("direction", "backward", "traversal direction (backward, forward)")
	snowballCmd.Flags().String("seeds-file", "", "file of seed DOIs, one per line ('-' for stdin)")
	snowballCmd.Flags().Int("workers", 0, "concurrent seed fetches (0 = default)")

	rootCmd.AddCommand(snowballCmd)
}

func runSnowball(cmd *cobra.Command, args []string) error {
	seeds, err := collectSeeds(cmd, args)
	if err != nil {
		return err
	}

	dir, err := parseDirection(cmd)
	if err != nil {
		return err
	}

	ad, eng, err := buildEngine(cmd)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	sb, err := search.NewSnowball(eng, ad, seeds, dir, types.SnowballConfig{Workers: workers}, log)
	if err != nil {
		return err
	}

	res, execErr := sb.Execute(cmd.Context())
	if execErr != nil {
		if res != nil && res.Collection.Size() > 0 {
			log.Warn().Int("records", res.Collection.Size()).Msg("exporting partial results")
			if werr := writeResult(cmd, "snowball", snowballSpec(seeds, dir), ad, eng, res); werr != nil {
				return werr
			}
		}
		return execErr
	}

	return writeResult(cmd, "snowball", snowballSpec(seeds, dir), ad, eng, res)
}

// snowballSpec records the traversal parameters for the archive.
func snowballSpec(seeds []string, dir service.Direction) any {
	return map[string]any{"seeds": seeds, "direction": dir.String()}
}

func parseDirection(cmd *cobra.Command) (service.Direction, error) {
	raw, _ := cmd.Flags().GetString("direction")
	switch strings.ToLower(raw) {
	case "backward":
		return service.Backward, nil
	case "forward":
		return service.Forward, nil
	default:
		return service.Backward, fmt.Errorf("unknown direction %q (want backward or forward)", raw)
	}
}

// collectSeeds merges positional seeds with the --seeds-file contents.
// Blank lines and #-comments in the file are skipped.
func collectSeeds(cmd *cobra.Command, args []string) ([]string, error) {
	seeds := append([]string(nil), args...)

	path, _ := cmd.Flags().GetString("seeds-file")
	if path == "" {
		return seeds, nil
	}

	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening seeds file: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seeds file: %w", err)
	}
	return seeds, nil
}
