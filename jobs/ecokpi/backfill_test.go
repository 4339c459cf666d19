package ecokpi

import (
	"testing"
	"time"

	"github.com/gridscope/gridscope/core/journal"
	eco "github.com/gridscope/gridscope/core/metrics/eco"
)

func TestBackfill(t *testing.T) {
	day := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	history := []journal.RunRecord{
		{
			Kind: journal.RunSimulation,
			Estimates: []journal.EstimateEntry{
				{SubstationID: "SE01", Time: day, EnergyKWh: 100},
				{SubstationID: "SE01", Time: day.AddDate(0, 0, 1), EnergyKWh: 150},
				{SubstationID: "SE02", Time: day, EnergyKWh: 80},
			},
		},
		{Kind: journal.RunPartition}, // no estimates, skipped
	}

	store := eco.NewMemoryStore()
	if err := Backfill(store, history); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	recs, err := store.Query("SE01", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 || recs[0].GeneratedKWh != 100 || recs[1].GeneratedKWh != 150 {
		t.Fatalf("unexpected records %+v", recs)
	}
}
