package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridscope/gridscope/app"
	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/core/journal"
	"github.com/gridscope/gridscope/infra/kpi"
	"github.com/gridscope/gridscope/jobs/ecokpi"
)

var backfillDB string

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild the eco KPI store from journaled simulation runs",
	RunE:  runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillDB, "kpi-db", "kpi.db", "eco KPI SQLite path")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := app.OpenJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "journal close: %v\n", cerr)
		}
	}()

	recs, err := store.Query(cmd.Context(), journal.Query{Kind: journal.RunSimulation})
	if err != nil {
		return err
	}
	kpiStore, err := kpi.NewSQLiteStore(backfillDB)
	if err != nil {
		return fmt.Errorf("open kpi store: %w", err)
	}
	defer func() {
		if cerr := kpiStore.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "kpi store close: %v\n", cerr)
		}
	}()

	if err := ecokpi.Backfill(kpiStore, recs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d simulation runs\n", len(recs))
	return nil
}
