package kpi

import (
	"testing"
	"time"

	core "github.com/gridscope/gridscope/core/metrics/eco"
)

func TestSQLiteStoreAggregatesByDay(t *testing.T) {
	st, err := NewSQLiteStore("file:kpi_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	day := time.Date(2024, 7, 10, 15, 30, 0, 0, time.UTC)
	if err := st.Add(core.Record{SubstationID: "SE01", Date: day, GeneratedKWh: 200}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.Add(core.Record{SubstationID: "SE01", Date: day.Add(2 * time.Hour), GeneratedKWh: 100, ConsumedKWh: 400}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st.Add(core.Record{SubstationID: "SE02", Date: day, GeneratedKWh: 50}); err != nil {
		t.Fatalf("add: %v", err)
	}

	recs, err := st.Query("SE01", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 aggregated record, got %d", len(recs))
	}
	if recs[0].GeneratedKWh != 300 || recs[0].ConsumedKWh != 400 {
		t.Fatalf("unexpected aggregation %+v", recs[0])
	}
	if recs[0].Date != core.Day(day) {
		t.Fatalf("date not truncated to day: %v", recs[0].Date)
	}
}

func TestSQLiteStoreQueryWindow(t *testing.T) {
	st, err := NewSQLiteStore("file:kpi_window_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := st.Add(core.Record{SubstationID: "SE01", Date: base.AddDate(0, 0, i), GeneratedKWh: float64(i)}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	recs, err := st.Query("SE01", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i].Date.After(recs[i-1].Date) {
			t.Fatal("records out of order")
		}
	}
}
