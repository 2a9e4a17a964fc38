package datastore

var _ MutableDataStore = &MemoryDataStore{}

// MemoryDataStore is an in-memory MutableDataStore.
type MemoryDataStore struct {
	AddressRefStore       *MemoryAddressRefStore
	ContractMetadataStore *MemoryContractMetadataStore
}

// NewMemoryDataStore creates an empty MemoryDataStore.
func NewMemoryDataStore() *MemoryDataStore {
	return &MemoryDataStore{
		AddressRefStore:       NewMemoryAddressRefStore(),
		ContractMetadataStore: NewMemoryContractMetadataStore(),
	}
}

// Addresses returns the address ref store.
func (s *MemoryDataStore) Addresses() MutableAddressRefStore {
	return s.AddressRefStore
}

// ContractMetadata returns the contract metadata store.
func (s *MemoryDataStore) ContractMetadata() MutableContractMetadataStore {
	return s.ContractMetadataStore
}

// Seal returns a read-only view sharing the underlying stores.
func (s *MemoryDataStore) Seal() DataStore {
	return sealedMemoryDataStore{
		addressRefs:      s.AddressRefStore,
		contractMetadata: s.ContractMetadataStore,
	}
}

// Merge upserts every record of other.
func (s *MemoryDataStore) Merge(other DataStore) error {
	if other == nil {
		return nil
	}

	refs, err := other.Addresses().Fetch()
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.AddressRefStore.Upsert(ref); err != nil {
			return err
		}
	}

	metadata, err := other.ContractMetadata().Fetch()
	if err != nil {
		return err
	}
	for _, record := range metadata {
		if err := s.ContractMetadataStore.Upsert(record); err != nil {
			return err
		}
	}

	return nil
}

type sealedMemoryDataStore struct {
	addressRefs      *MemoryAddressRefStore
	contractMetadata *MemoryContractMetadataStore
}

func (s sealedMemoryDataStore) Addresses() AddressRefStore {
	return s.addressRefs
}

func (s sealedMemoryDataStore) ContractMetadata() ContractMetadataStore {
	return s.contractMetadata
}
