package eval

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

var csvHeader = []string{"game", "seed", "winner", "days", "decisions", "heuristic", "timeouts", "provider_errors", "avg_latency_ms"}

// WriteCSV writes a header line and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Game,
			strconv.FormatInt(r.Seed, 10),
			r.Winner,
			strconv.Itoa(r.Days),
			strconv.Itoa(r.Decisions),
			strconv.Itoa(r.Heuristic),
			strconv.Itoa(r.Timeouts),
			strconv.Itoa(r.ProviderErrors),
			strconv.FormatFloat(r.AvgLatencyMs, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
