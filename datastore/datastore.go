// Package datastore records what was deployed where: address references keyed by chain, type,
// version and qualifier, and free-form metadata per deployed contract.
package datastore

// Comparable provides an Equals method which returns true if the two instances are equal.
type Comparable[T any] interface {
	Equals(T) bool
}

// UniqueRecord is a record identified by its primary key.
type UniqueRecord[K Comparable[K], R any] interface {
	Key() K
	Clone() (R, error)
}

// FilterFunc narrows a slice of records.
type FilterFunc[K Comparable[K], R UniqueRecord[K, R]] func([]R) []R

// Store is an immutable set of records.
type Store[K Comparable[K], R UniqueRecord[K, R]] interface {
	// Fetch returns copies of every record. Modifying them does not affect the store.
	Fetch() ([]R, error)
	// Get returns the record with the given key.
	Get(key K) (R, error)
	// Filter returns the records passing every filter, applied in order.
	Filter(filters ...FilterFunc[K, R]) []R
}

// MutableStore is a Store that can be modified.
type MutableStore[K Comparable[K], R UniqueRecord[K, R]] interface {
	Store[K, R]

	// Add inserts a record, failing if one with the same key exists.
	Add(record R) error
	// Upsert inserts the record or replaces the one with the same key.
	Upsert(record R) error
	// Update replaces the record with the same key, failing if there is none.
	Update(record R) error
	// Delete removes the record with the given key, failing if there is none.
	Delete(key K) error
}

// AddressRefStore is a read-only view over AddressRef records.
type AddressRefStore interface {
	Store[AddressRefKey, AddressRef]
}

// MutableAddressRefStore is a mutable AddressRefStore.
type MutableAddressRefStore interface {
	MutableStore[AddressRefKey, AddressRef]
}

// ContractMetadataStore is a read-only view over ContractMetadata records.
type ContractMetadataStore interface {
	Store[ContractMetadataKey, ContractMetadata]
}

// MutableContractMetadataStore is a mutable ContractMetadataStore.
type MutableContractMetadataStore interface {
	MutableStore[ContractMetadataKey, ContractMetadata]
}

// DataStore is a sealed, read-only data store.
type DataStore interface {
	Addresses() AddressRefStore
	ContractMetadata() ContractMetadataStore
}

// MutableDataStore is a data store that changesets write to. Seal it before handing it out.
type MutableDataStore interface {
	Addresses() MutableAddressRefStore
	ContractMetadata() MutableContractMetadataStore

	// Merge upserts every record of other into this store.
	Merge(other DataStore) error
	// Seal returns a read-only view of the store.
	Seal() DataStore
}
