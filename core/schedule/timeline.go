package schedule

// Timeline is the ordered list of events of one train.
type Timeline struct {
	TrainID int
	events  []EventID
}

func (t *Timeline) append(id EventID) { t.events = append(t.events, id) }

func (t *Timeline) remove(id EventID) bool {
	for i, e := range t.events {
		if e == id {
			t.events = append(t.events[:i], t.events[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Timeline) Len() int { return len(t.events) }
