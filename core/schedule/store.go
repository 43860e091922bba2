package schedule

import (
	"fmt"
	"sort"
	"sync"
)

// Store keeps the schedules produced by successive runs, ordered by id.
type Store struct {
	mu    sync.RWMutex
	byID  map[int]*Schedule
	order []int
}

func NewStore() *Store {
	return &Store{byID: map[int]*Schedule{}}
}

// NextID returns an id greater than any stored schedule id.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return 1
	}
	return s.order[len(s.order)-1] + 1
}

// Add stores sc. Ids must be unique.
func (s *Store) Add(sc *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sc.ID]; ok {
		return fmt.Errorf("schedule %d: %w", sc.ID, ErrDuplicateID)
	}
	s.byID[sc.ID] = sc
	i := sort.SearchInts(s.order, sc.ID)
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = sc.ID
	return nil
}

func (s *Store) ByID(id int) (*Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.byID[id]
	return sc, ok
}

// Latest returns the schedule with the highest id.
func (s *Store) Latest() (*Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, false
	}
	return s.byID[s.order[len(s.order)-1]], true
}

// Older returns the schedule immediately preceding id.
func (s *Store) Older(id int) (*Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.SearchInts(s.order, id)
	if i == 0 {
		return nil, false
	}
	return s.byID[s.order[i-1]], true
}

// Newer returns the schedule immediately following id.
func (s *Store) Newer(id int) (*Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.SearchInts(s.order, id)
	if i < len(s.order) && s.order[i] == id {
		i++
	}
	if i >= len(s.order) {
		return nil, false
	}
	return s.byID[s.order[i]], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
