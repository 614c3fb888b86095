package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/invoicesheet/internal/table"
)

// Result is a finished conversion waiting to be downloaded. It is not
// modified after it is stored.
type Result struct {
	ID       string  `json:"id"`
	Variant  Variant `json:"variant"`
	Filename string  `json:"filename"`

	Files          int `json:"files"`
	Pages          int `json:"pages"`
	Tables         int `json:"tables"`
	Rows           int `json:"rows"`
	Columns        int `json:"columns"`
	RowsDropped    int `json:"rows_dropped"`
	ColumnsDropped int `json:"columns_dropped"`

	CreatedAt time.Time `json:"created_at"`

	// Internal: not serialized.
	data  []byte
	frame *table.Frame
}

// Data returns the workbook bytes.
func (r *Result) Data() []byte { return r.data }

// Frame returns the combined table the workbook was built from.
func (r *Result) Frame() *table.Frame { return r.frame }

// ResultStore is a thread-safe in-memory result registry with TTL eviction.
type ResultStore struct {
	mu      sync.Mutex
	results map[string]*Result
	ttl     time.Duration
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		results: make(map[string]*Result),
		ttl:     ttl,
	}
}

func (s *ResultStore) Put(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.ID] = r
}

// Get returns the result with the given ID, or nil if it is unknown or
// has outlived the TTL.
func (s *ResultStore) Get(id string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.results[id]
	if r == nil || time.Since(r.CreatedAt) > s.ttl {
		return nil
	}
	return r
}

// Len returns the number of stored results, expired or not.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Cleanup removes expired results.
func (s *ResultStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, r := range s.results {
		if now.Sub(r.CreatedAt) > s.ttl {
			delete(s.results, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
