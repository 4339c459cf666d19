package scenarios

import (
	"context"
	"testing"

	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/market"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/core/partition"
	"github.com/gridscope/gridscope/infra/geomops"
	"github.com/gridscope/gridscope/infra/logger"
)

// RunScenario partitions the scenario's plane, assigns its records and
// checks the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	eng, err := partition.New(geomops.New(), partition.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	sites := make([]geo.Site, len(sc.Sites))
	for i, s := range sc.Sites {
		sites[i] = s.ToSite()
	}

	res, err := eng.Partition(context.Background(), sites, sc.Boundary.ToModel())
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(res.Territories) != len(sites) {
		t.Fatalf("expected one territory per site, got %d for %d sites", len(res.Territories), len(sites))
	}
	nonEmpty := 0
	for _, tr := range res.Territories {
		if !tr.Empty() {
			nonEmpty++
		}
	}
	if nonEmpty != sc.Expected.Territories {
		t.Errorf("scenario %s expected %d non-empty territories, got %d", sc.Name, sc.Expected.Territories, nonEmpty)
	}
	if len(res.Anomalies) != sc.Expected.Anomalies {
		t.Errorf("scenario %s expected %d partition anomalies, got %d: %+v", sc.Name, sc.Expected.Anomalies, len(res.Anomalies), res.Anomalies)
	}

	if len(sc.Records) == 0 {
		return
	}
	asn, err := market.NewAssigner(market.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("assigner: %v", err)
	}
	records := make([]model.MarketRecord, len(sc.Records))
	for i, r := range sc.Records {
		records[i] = r.ToModel()
	}
	ares, err := asn.Assign(context.Background(), res.Territories, records)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(ares.Unassigned) != sc.Expected.Unassigned {
		t.Errorf("scenario %s expected %d unassigned records, got %d", sc.Name, sc.Expected.Unassigned, len(ares.Unassigned))
	}
	byID := make(map[string]model.MarketProfile, len(ares.Profiles))
	for _, p := range ares.Profiles {
		byID[p.SubstationID] = p
	}
	for id, want := range sc.Expected.Customers {
		if got := byID[id].Customers; got != want {
			t.Errorf("scenario %s expected %d customers at %s, got %d", sc.Name, want, id, got)
		}
	}
	for id, want := range sc.Expected.InstalledKW {
		if got := byID[id].InstalledKW; got != want {
			t.Errorf("scenario %s expected %v installed kW at %s, got %v", sc.Name, want, id, got)
		}
	}
}
