package datastore

import (
	"slices"
	"sync"
)

// memoryStore is an in-memory MutableStore. Records keep their insertion order.
type memoryStore[K Comparable[K], R UniqueRecord[K, R]] struct {
	mu          sync.RWMutex
	records     []R
	errNotFound error
	errExists   error
}

func (s *memoryStore[K, R]) indexOf(key K) int {
	return slices.IndexFunc(s.records, func(r R) bool { return r.Key().Equals(key) })
}

// Get returns a copy of the record with the given key.
func (s *memoryStore[K, R]) Get(key K) (R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(key)
	if idx == -1 {
		var zero R
		return zero, s.errNotFound
	}

	return s.records[idx].Clone()
}

// Fetch returns copies of all records.
func (s *memoryStore[K, R]) Fetch() ([]R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]R, 0, len(s.records))
	for _, record := range s.records {
		cloned, err := record.Clone()
		if err != nil {
			return nil, err
		}
		records = append(records, cloned)
	}

	return records, nil
}

// Filter returns the records passing every filter.
func (s *memoryStore[K, R]) Filter(filters ...FilterFunc[K, R]) []R {
	s.mu.RLock()
	records := slices.Clone(s.records)
	s.mu.RUnlock()

	for _, filter := range filters {
		records = filter(records)
	}

	return records
}

// Add inserts a record, failing if one with the same key exists.
func (s *memoryStore[K, R]) Add(record R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Key()) != -1 {
		return s.errExists
	}
	s.records = append(s.records, record)

	return nil
}

// Upsert inserts the record or replaces the one with the same key.
func (s *memoryStore[K, R]) Upsert(record R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(record.Key()); idx != -1 {
		s.records[idx] = record
		return nil
	}
	s.records = append(s.records, record)

	return nil
}

// Update replaces the record with the same key.
func (s *memoryStore[K, R]) Update(record R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		return s.errNotFound
	}
	s.records[idx] = record

	return nil
}

// Delete removes the record with the given key.
func (s *memoryStore[K, R]) Delete(key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return s.errNotFound
	}
	s.records = slices.Delete(s.records, idx, idx+1)

	return nil
}

// MemoryAddressRefStore is an in-memory MutableAddressRefStore.
type MemoryAddressRefStore struct {
	memoryStore[AddressRefKey, AddressRef]
}

var _ MutableAddressRefStore = &MemoryAddressRefStore{}

// NewMemoryAddressRefStore creates an empty MemoryAddressRefStore.
func NewMemoryAddressRefStore() *MemoryAddressRefStore {
	return &MemoryAddressRefStore{memoryStore[AddressRefKey, AddressRef]{
		errNotFound: ErrAddressRefNotFound,
		errExists:   ErrAddressRefExists,
	}}
}

// Add validates and inserts an AddressRef.
func (s *MemoryAddressRefStore) Add(record AddressRef) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return s.memoryStore.Add(record)
}

// Upsert validates and inserts or replaces an AddressRef.
func (s *MemoryAddressRefStore) Upsert(record AddressRef) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return s.memoryStore.Upsert(record)
}

// MemoryContractMetadataStore is an in-memory MutableContractMetadataStore.
type MemoryContractMetadataStore struct {
	memoryStore[ContractMetadataKey, ContractMetadata]
}

var _ MutableContractMetadataStore = &MemoryContractMetadataStore{}

// NewMemoryContractMetadataStore creates an empty MemoryContractMetadataStore.
func NewMemoryContractMetadataStore() *MemoryContractMetadataStore {
	return &MemoryContractMetadataStore{memoryStore[ContractMetadataKey, ContractMetadata]{
		errNotFound: ErrContractMetadataNotFound,
		errExists:   ErrContractMetadataExists,
	}}
}
