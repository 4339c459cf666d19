// Package ecokpi rebuilds eco KPI stores from the run journal.
package ecokpi

import (
	"github.com/gridscope/gridscope/core/journal"
	eco "github.com/gridscope/gridscope/core/metrics/eco"
)

// Backfill replays journaled simulation runs into the store. Only generation
// is replayed; consumption baselines come from live market assignments and
// are not journaled.
func Backfill(store eco.Store, history []journal.RunRecord) error {
	for _, rec := range history {
		if rec.Kind != journal.RunSimulation {
			continue
		}
		for _, e := range rec.Estimates {
			r := eco.Record{
				SubstationID: e.SubstationID,
				Date:         eco.Day(e.Time),
				GeneratedKWh: e.EnergyKWh,
			}
			if err := store.Add(r); err != nil {
				return err
			}
		}
	}
	return nil
}
