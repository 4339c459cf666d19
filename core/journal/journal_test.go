package journal

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func sampleRecord(ts time.Time) RunRecord {
	return RunRecord{
		Timestamp:      ts,
		RunID:          "run-1",
		Kind:           RunSimulation,
		TerritoryCount: 2,
		Estimates: []EstimateEntry{
			{SubstationID: "SE01", Time: ts, EnergyKWh: 120, Ratio: 0.3, Impact: "high_injection"},
			{SubstationID: "SE02", Time: ts, EnergyKWh: 15, Ratio: 0.1, Impact: "normal", FromGap: true},
		},
		Anomalies: []AnomalyEntry{{Kind: "empty_cell", Subject: "SE03"}},
	}
}

func TestRunRecord_JSON(t *testing.T) {
	rec := sampleRecord(time.Unix(0, 0))
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := []string{"timestamp", "run_id", "kind", "territory_count", "estimates", "anomalies"}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if _, ok := m["errors"]; ok {
		t.Errorf("empty errors map not omitted")
	}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := t.TempDir() + "/journal.jsonl"
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.Append(context.Background(), sampleRecord(now)); err != nil {
		t.Fatalf("append: %v", err)
	}
	other := sampleRecord(now.Add(time.Hour))
	other.RunID = "run-2"
	other.Kind = RunPartition
	if err := store.Append(context.Background(), other); err != nil {
		t.Fatalf("append: %v", err)
	}

	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}

	out, err = store.Query(context.Background(), Query{Kind: RunPartition})
	if err != nil {
		t.Fatalf("query kind: %v", err)
	}
	if len(out) != 1 || out[0].RunID != "run-2" {
		t.Fatalf("kind filter: %+v", out)
	}

	out, err = store.Query(context.Background(), Query{SubstationID: "SE03"})
	if err != nil {
		t.Fatalf("query substation: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("anomaly subject should match, got %d records", len(out))
	}

	out, err = store.Query(context.Background(), Query{End: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(out) != 1 || out[0].RunID != "run-1" {
		t.Fatalf("window filter: %+v", out)
	}
}
