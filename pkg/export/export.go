// Package export renders partition and simulation results in the formats
// downstream consumers read: GeoJSON territories, CSV and JSON estimate
// series.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/gridscope/gridscope/core/model"
)

// EstimateRow is the export shape of one daily estimate.
type EstimateRow struct {
	SubstationID string  `json:"substation_id"`
	Date         string  `json:"date"`
	EnergyKWh    float64 `json:"energy_kwh"`
	Ratio        float64 `json:"ratio"`
	Impact       string  `json:"impact"`
	FromGap      bool    `json:"from_gap"`
}

func rowOf(e model.GenerationEstimate) EstimateRow {
	return EstimateRow{
		SubstationID: e.SubstationID,
		Date:         e.Time.UTC().Format(time.DateOnly),
		EnergyKWh:    e.EnergyKWh,
		Ratio:        e.Ratio,
		Impact:       e.Impact.String(),
		FromGap:      e.FromGap,
	}
}

// WriteEstimatesJSON writes the estimates to w as a JSON array.
func WriteEstimatesJSON(w io.Writer, estimates []model.GenerationEstimate) error {
	rows := make([]EstimateRow, len(estimates))
	for i, e := range estimates {
		rows[i] = rowOf(e)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteEstimatesCSV writes the estimates to w in CSV format.
func WriteEstimatesCSV(w io.Writer, estimates []model.GenerationEstimate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"substation_id", "date", "energy_kwh", "ratio", "impact", "from_gap"}); err != nil {
		return err
	}
	for _, e := range estimates {
		r := rowOf(e)
		rec := []string{
			r.SubstationID,
			r.Date,
			strconv.FormatFloat(r.EnergyKWh, 'f', -1, 64),
			strconv.FormatFloat(r.Ratio, 'f', -1, 64),
			r.Impact,
			strconv.FormatBool(r.FromGap),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
