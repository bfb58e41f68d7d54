package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rpotraining/internal/adapters/http/perf"
	"rpotraining/internal/application/projections"
	"rpotraining/internal/application/tracker"
	"rpotraining/internal/domain/catalogue"
)

// openTracker loads the catalogue and the persisted progress for a CLI command.
func openTracker(ctx context.Context, cfg config) (*tracker.Tracker, func() error, error) {
	cat, err := loadCatalogue(cfg.cataloguePath)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(cfg, perf.NewCollector(64))
	if err != nil {
		return nil, nil, err
	}
	tr, err := tracker.New(ctx, tracker.Deps{Store: store, Catalogue: cat, Key: cfg.progressKey})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return tr, closeStore, nil
}

func newProgressCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{Use: "progress", Short: "Inspect or change stored progress"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print overall and per-module progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, closeStore, err := openTracker(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			printProgress(cmd.OutOrStdout(), tr)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mark <session-id>",
		Short: "Mark a session complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, closeStore, err := openTracker(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			id := catalogue.SessionID(args[0])
			if !id.Valid() {
				return fmt.Errorf("%q is not a session id (want session-<m>-<i>)", args[0])
			}
			rec, err := tr.MarkComplete(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s completed at %s\n",
				color.New(color.FgGreen).Sprint("✓"), id, rec.CompletedAt.Format("2006-01-02 15:04:05 MST"))
			if _, known := tr.Catalogue().SessionTitle(id); !known {
				fmt.Fprintf(out, "  %s\n", color.New(color.FgYellow).Sprint("not in the catalogue; stored but not counted"))
			}
			return nil
		},
	})
	return cmd
}

func printProgress(w io.Writer, tr *tracker.Tracker) {
	cv := projections.QueryGetCatalogueView(projections.GetCatalogueViewDeps{
		Catalogue: tr.Catalogue(),
		Progress:  tr,
	})

	fmt.Fprintln(w, color.New(color.Bold).Sprint(cv.Title))
	fmt.Fprintf(w, "Overall: %d/%d sessions (%d%%)\n\n", cv.Overall.Completed, cv.Overall.Total, cv.Overall.Percentage)
	for _, m := range cv.Modules {
		mark := " "
		c := color.New(color.FgWhite)
		switch {
		case m.Done():
			mark, c = "✓", color.New(color.FgGreen)
		case m.Completed > 0:
			mark, c = "…", color.New(color.FgYellow)
		}
		fmt.Fprintf(w, "  %s %-60s %s\n", c.Sprint(mark), m.Title,
			c.Sprintf("%d/%d (%d%%)", m.Completed, m.Total, m.Percentage))
	}

	if cv.Continue.Visible {
		fmt.Fprintf(w, "\nNext: %s\n", color.New(color.FgCyan).Sprint(cv.Continue.Title))
	} else if cv.Overall.Done() {
		fmt.Fprintf(w, "\n%s\n", color.New(color.FgGreen).Sprint("All sessions complete."))
	}
}
