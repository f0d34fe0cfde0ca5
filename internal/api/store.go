package api

import (
	"sync"

	"github.com/google/uuid"
)

// ContractionStore keeps finished contractions in memory, oldest evicted
// first once the limit is reached.
type ContractionStore struct {
	mu      sync.Mutex
	limit   int
	order   []string
	results map[string]ContractionResponse
}

// NewContractionStore returns a store holding at most limit results. A
// limit of zero or less keeps everything.
func NewContractionStore(limit int) *ContractionStore {
	return &ContractionStore{
		limit:   limit,
		results: make(map[string]ContractionResponse),
	}
}

func (s *ContractionStore) Put(resp ContractionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.results[resp.ID] = resp
	for s.limit > 0 && len(s.order) > s.limit {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ContractionStore) Get(id string) (ContractionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.results[id]
	return resp, ok
}

func (s *ContractionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return false
	}
	delete(s.results, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ContractionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newContractionID() string {
	return "ctr_" + uuid.NewString()
}
