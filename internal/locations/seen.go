package locations

import "sync"

// SeenCoordinates records, per company, the coordinates already accepted
// during one run.
type SeenCoordinates struct {
	mu        sync.RWMutex
	byCompany map[string]map[Coordinates]struct{}
}

// NewSeenCoordinates returns an empty set.
func NewSeenCoordinates() *SeenCoordinates {
	return &SeenCoordinates{byCompany: make(map[string]map[Coordinates]struct{})}
}

// Seen reports whether c was already accepted for company.
func (s *SeenCoordinates) Seen(company string, c Coordinates) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCompany[company][c]
	return ok
}

// Add records c for company.
func (s *SeenCoordinates) Add(company string, c Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byCompany[company]
	if !ok {
		set = make(map[Coordinates]struct{})
		s.byCompany[company] = set
	}
	set[c] = struct{}{}
}

// Len returns how many coordinates are recorded for company.
func (s *SeenCoordinates) Len(company string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCompany[company])
}
