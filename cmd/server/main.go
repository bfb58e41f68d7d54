package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := configFromEnv()

	root := &cobra.Command{
		Use:           "rpo-training",
		Short:         "Self-paced RPO AI training course",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogging(cfg.logLevel)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.db, "db", cfg.db, "SQLite database path (RPO_DB)")
	pf.StringVar(&cfg.cataloguePath, "catalogue", cfg.cataloguePath, "YAML catalogue; built-in course when empty (RPO_CATALOGUE)")
	pf.StringVar(&cfg.progressKey, "progress-key", cfg.progressKey, "storage key of the progress record (RPO_PROGRESS_KEY)")
	pf.StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "debug, info, warn or error (RPO_LOG_LEVEL)")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newProgressCmd(&cfg))
	root.AddCommand(newCatalogueCmd())
	return root
}
