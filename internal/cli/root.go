// Package cli implements the curator CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/curatorhq/curator/internal/classifier"
	"github.com/curatorhq/curator/internal/compensation"
	"github.com/curatorhq/curator/internal/config"
	"github.com/curatorhq/curator/internal/pipeline"
	"github.com/curatorhq/curator/internal/similarity"
	"github.com/curatorhq/curator/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	cfgPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Memory curation pipeline for AI assistants",
	Long:  "Governs how raw submissions become curated context: quarantine, reviewed promotion, provenance, health, and compensation. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $CURATOR_DB or ~/.curator/curator.db)")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config path (default: $CURATOR_CONFIG or ~/.curator/config.yaml)")
}

func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CURATOR_DB"); env != "" {
		return env
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".curator", "curator.db")
}

func loadConfig() *config.Config {
	path := cfgPath
	if path == "" {
		if env := os.Getenv("CURATOR_CONFIG"); env != "" {
			path = env
		} else {
			home, _ := os.UserHomeDir()
			path = filepath.Join(home, ".curator", "config.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func openStore(cfg *config.Config) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(getDBPath(cfg))
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func openPipeline() (*pipeline.Pipeline, *store.SQLiteStore) {
	cfg := loadConfig()
	s := openStore(cfg)

	p := pipeline.New(s,
		classifier.NewHeuristic(cfg.Classifier.BannedPatterns),
		&similarity.Lexical{Contents: s.PromotedContents})
	p.Policy = classifier.Policy{
		SafeThreshold:   cfg.Classifier.SafeThreshold,
		FlagThreshold:   cfg.Classifier.FlagThreshold,
		RejectThreshold: cfg.Classifier.RejectThreshold,
	}
	p.Valuer = compensation.NewValuer(cfg.Compensation.Rates, cfg.Compensation.USDPerPoint)
	p.CapabilityTimeout = cfg.Classifier.Timeout
	return p, s
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
