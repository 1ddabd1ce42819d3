// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-trawler CLI.
//
// paper-trawler automates two literature-discovery workflows for
// systematic reviews: handsearching a bibliographic index (Crossref) by
// journal, date range, and keywords; and snowball searching the citation
// graph (Crossref, COCI) backward and forward from a set of seed DOIs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-trawler/internal/logging"
	"github.com/pdiddy/paper-trawler/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// log is the process-wide logger, configured in PersistentPreRunE.
var log zerolog.Logger

// secretDefault returns fallback if non-empty, else the stored secret for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the paper-trawler CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-trawler",
	Short: "Handsearch and snowball-search bibliographic metadata services",
	Long: `paper-trawler retrieves scholarly work metadata for systematic reviews.

handsearch queries a journal's works on Crossref by date range and keywords.
snowball traverses the citation graph outward from seed DOIs: backward over
references (Crossref, COCI) or forward over citing works (COCI).

Results are deduplicated by DOI and export as identifier lists, citation
tables (CSV/TSV), or RIS records. Completed runs can be archived to a local
SQLite database and re-exported without touching the network.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s

		log = logging.New(logging.Config{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		})
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-trawler.yaml or ~/.config/paper-trawler/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-trawler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-trawler"))
		}
	}

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	viper.SetEnvPrefix("PAPER_TRAWLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
