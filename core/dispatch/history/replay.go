package history

import (
	"sort"

	"github.com/kilianp07/railsched/core/schedule"
)

// Latest keeps the most recent record of every train.
func Latest(records []Record) map[int]Record {
	out := make(map[int]Record)
	for _, r := range records {
		if cur, ok := out[r.TrainID]; !ok || !r.Timestamp.Before(cur.Timestamp) {
			out[r.TrainID] = r
		}
	}
	return out
}

// Replay rebuilds a schedule holding the frozen events of every dispatched
// train, suitable as the previous schedule of the next run.
func Replay(id int, records []Record, opts ...schedule.Option) *schedule.Schedule {
	latest := Latest(records)
	ids := make([]int, 0, len(latest))
	for trainID := range latest {
		ids = append(ids, trainID)
	}
	sort.Ints(ids)
	s := schedule.New(id, opts...)
	for _, trainID := range ids {
		for _, e := range latest[trainID].Events {
			s.AddEvent(e)
		}
	}
	return s
}

// Dispatched returns the ids of trains that have a record.
func Dispatched(records []Record) map[int]bool {
	out := make(map[int]bool, len(records))
	for _, r := range records {
		out[r.TrainID] = true
	}
	return out
}
