// Package kpi persists eco KPI records across restarts. The in-memory store
// in core/metrics/eco serves single runs; this one backs long-lived
// deployments.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/gridscope/gridscope/core/metrics/eco"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS eco_kpi (
        substation_id TEXT,
        day INTEGER,
        generated REAL,
        consumed REAL,
        PRIMARY KEY(substation_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or aggregates the KPI record for the substation's day.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO eco_kpi (substation_id, day, generated, consumed)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(substation_id, day) DO UPDATE SET
            generated = generated + excluded.generated,
            consumed = consumed + excluded.consumed`,
		r.SubstationID, d.Unix(), r.GeneratedKWh, r.ConsumedKWh)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(substationID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT substation_id, day, generated, consumed
        FROM eco_kpi WHERE substation_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		substationID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var sid string
		var ts int64
		var gen, cons float64
		if err := rows.Scan(&sid, &ts, &gen, &cons); err != nil {
			return nil, err
		}
		res = append(res, core.Record{
			SubstationID: sid,
			Date:         time.Unix(ts, 0).UTC(),
			GeneratedKWh: gen,
			ConsumedKWh:  cons,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ core.Store = (*SQLiteStore)(nil)
