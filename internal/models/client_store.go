package models

import (
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// ClientStoreInterface is the gateway's stand-in for browser durable storage:
// a flat key/value map, last writer wins.
type ClientStoreInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
	DeletePrefix(prefix string) int
	Len() int
}

type ClientStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	dirty atomic.Bool
}

func NewClientStore() *ClientStore {
	return &ClientStore{data: make(map[string][]byte)}
}

func (s *ClientStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true
}

func (s *ClientStore) Set(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.data[key] = stored
	s.mu.Unlock()
	s.dirty.Store(true)
}

func (s *ClientStore) Delete(key string) {
	s.mu.Lock()
	_, ok := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	if ok {
		s.dirty.Store(true)
	}
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (s *ClientStore) DeletePrefix(prefix string) int {
	s.mu.Lock()
	n := 0
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.dirty.Store(true)
	}
	return n
}

func (s *ClientStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot copies the map and clears the dirty flag. A write racing with the
// snapshot sets the flag again, so it is picked up by the next save.
func (s *ClientStore) Snapshot() map[string][]byte {
	s.dirty.Store(false)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Replace swaps the whole map, used when restoring from disk.
func (s *ClientStore) Replace(data map[string][]byte) {
	if data == nil {
		data = make(map[string][]byte)
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	s.dirty.Store(false)
}

func (s *ClientStore) Dirty() bool {
	return s.dirty.Load()
}

// MarkDirty forces the next save, used after a failed write.
func (s *ClientStore) MarkDirty() {
	s.dirty.Store(true)
}

// StoreFile is the on-disk envelope for a ClientStore snapshot.
type StoreFile struct {
	Version int               `json:"version"`
	Entries map[string][]byte `json:"entries"`
}

const StoreFileVersion = 1

// VisitorKey namespaces a client store key to one visitor.
func VisitorKey(visitorID, name string) string {
	return "visitor:" + visitorID + ":" + name
}

// VisitorPrefix matches every key of one visitor.
func VisitorPrefix(visitorID string) string {
	return "visitor:" + visitorID + ":"
}
