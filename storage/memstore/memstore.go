// Package memstore is an in-memory Storage reference implementation used
// by tests and by standalone demos. It is not durable.
package memstore

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
)

// Store is a mutex-guarded map keyed by the raw storage key, holding
// RLP-encoded values. It satisfies storage.Storage.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) KVGet(key []byte, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[string(key)]
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) KVPut(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = raw
	return nil
}

func (s *Store) KVAppend(key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.data[string(key)]
	buf := make([]byte, 0, len(existing)+len(value))
	buf = append(buf, existing...)
	buf = append(buf, value...)
	s.data[string(key)] = buf
	return nil
}

func (s *Store) KVGetList(key []byte, out interface{}) error {
	s.mu.Lock()
	raw, ok := s.data[string(key)]
	s.mu.Unlock()
	if !ok || len(raw) == 0 {
		return nil
	}
	return rlp.DecodeBytes(raw, out)
}

func (s *Store) KVDelete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Raw returns the undecoded bytes stored at key, mainly for tests that
// want to assert on append-only log contents directly.
func (s *Store) Raw(key []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.data[string(key)])
}
