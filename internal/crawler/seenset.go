package crawler

import "sync"

// SeenSet tracks the external identifiers discovered during the current run
// so overlapping facets do not double-count the same repository toward their
// ceilings. It lives for one run only, durable dedup belongs to the upsert.
type SeenSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[int64]struct{}, 10000)}
}

// Add records id and reports whether it was new. Check and insert happen
// under one lock so two workers racing on the same id see exactly one true.
func (s *SeenSet) Add(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
