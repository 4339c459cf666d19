package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridscope/gridscope/app"
	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/core/journal"
)

var (
	journalKind       string
	journalRunID      string
	journalSubstation string
	journalSince      string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query past pipeline runs",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalKind, "kind", "", "filter by run kind: partition or simulation")
	journalCmd.Flags().StringVar(&journalRunID, "run-id", "", "filter by run ID")
	journalCmd.Flags().StringVar(&journalSubstation, "substation", "", "filter by substation ID")
	journalCmd.Flags().StringVar(&journalSince, "since", "", "only runs at or after this RFC 3339 instant")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
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

	q := journal.Query{
		RunID:        journalRunID,
		Kind:         journal.RunKind(journalKind),
		SubstationID: journalSubstation,
	}
	if journalSince != "" {
		start, err := time.Parse(time.RFC3339, journalSince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		q.Start = start
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
