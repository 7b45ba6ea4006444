package todo

import "time"

// idSource hands out strictly increasing IDs shaped like Unix millisecond
// timestamps. Two calls within the same millisecond still get distinct IDs.
type idSource struct {
	now  func() time.Time
	last int64
}

// observe raises the floor so future IDs stay above id.
func (s *idSource) observe(id int64) {
	if id > s.last {
		s.last = id
	}
}

// next returns the next ID, or false once the sequence has reached MaxID.
func (s *idSource) next() (int64, bool) {
	id := s.now().UnixMilli()
	if id <= s.last {
		if s.last >= MaxID {
			return 0, false
		}
		id = s.last + 1
	}
	if id > MaxID {
		return 0, false
	}
	s.last = id
	return id, true
}

// smallestUnusedID returns the lowest positive ID no task holds.
func smallestUnusedID(tasks []Task) int64 {
	used := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		used[t.ID] = struct{}{}
	}
	for id := int64(1); ; id++ {
		if _, ok := used[id]; !ok {
			return id
		}
	}
}
