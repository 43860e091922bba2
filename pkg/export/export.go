// Package export renders schedules for operators and downstream tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/railsched/core/schedule"
)

// Document is the JSON form of a schedule.
type Document struct {
	ScheduleID int              `json:"schedule_id"`
	Events     []schedule.Event `json:"events"`
	Report     schedule.Report  `json:"report"`
}

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{"event_id", "train_id", "type", "from", "to", "start", "end", "duration_s"}

// Write renders s in the given format, "json" or "csv".
func Write(w io.Writer, format string, s *schedule.Schedule) error {
	switch strings.ToLower(format) {
	case "", "json":
		return WriteJSON(w, s)
	case "csv":
		return WriteCSV(w, s)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteJSON writes every event in time order together with the lost-time
// report.
func WriteJSON(w io.Writer, s *schedule.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{
		ScheduleID: s.ID,
		Events:     s.AllEventsTimeSorted(),
		Report:     schedule.Summarize(s),
	})
}

// WriteCSV writes one row per event in time order.
func WriteCSV(w io.Writer, s *schedule.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range s.AllEventsTimeSorted() {
		rec := []string{
			strconv.FormatUint(uint64(e.ID), 10),
			strconv.Itoa(e.TrainID),
			e.Type.String(),
			e.From.Name(),
			e.To.Name(),
			e.Interval.Start.UTC().Format(time.RFC3339),
			e.Interval.End.UTC().Format(time.RFC3339),
			strconv.FormatFloat(e.Interval.Duration().Seconds(), 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
