package vaisala

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

// Record holds the fields of the most recent sentence seen for one message id.
type Record struct {
	MessageID  string
	Fields     map[string]string
	ObservedAt time.Time
}

// Field returns the raw value for code.
func (r Record) Field(code string) (string, bool) {
	v, ok := r.Fields[code]
	return v, ok
}

// RecordStore keeps the latest Record per message id. It is safe for
// concurrent use; readers always get a copy.
type RecordStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewRecordStore returns an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]Record)}
}

// Put replaces the record for r.MessageID.
func (s *RecordStore) Put(r Record) {
	r.Fields = maps.Clone(r.Fields)
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.MessageID] = r
}

// Get returns a copy of the record for messageID, or ErrRecordNotAvailable.
func (s *RecordStore) Get(messageID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[messageID]
	if !ok {
		return Record{}, fmt.Errorf("%w: message %q", ErrRecordNotAvailable, messageID)
	}
	r.Fields = maps.Clone(r.Fields)
	return r, nil
}

// Len returns the number of message ids held.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// MessageIDs returns the ids currently held, in no particular order.
func (s *RecordStore) MessageIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids
}
