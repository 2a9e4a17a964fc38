package datastore

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// The filters below compose, for example:
//
//	refs := store.Filter(
//		AddressRefByChainSelector(selector),
//		AddressRefByType(OperationInstance),
//	)

func addressRefFilter(predicate func(record AddressRef) bool) FilterFunc[AddressRefKey, AddressRef] {
	return func(records []AddressRef) []AddressRef {
		filtered := make([]AddressRef, 0, len(records))
		for _, record := range records {
			if predicate(record) {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}

// AddressRefByAddress keeps records with the given address, compared case-insensitively.
func AddressRefByAddress(address string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return strings.EqualFold(record.Address, address)
	})
}

// AddressRefByChainSelector keeps records on the given chain.
func AddressRefByChainSelector(chainSelector uint64) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.ChainSelector == chainSelector
	})
}

// AddressRefByType keeps records of the given contract type.
func AddressRefByType(contractType ContractType) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.Type == contractType
	})
}

// AddressRefByVersion keeps records with the given version.
func AddressRefByVersion(version *semver.Version) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return versionsEqual(record.Version, version)
	})
}

// AddressRefByQualifier keeps records with the given qualifier.
func AddressRefByQualifier(qualifier string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.Qualifier == qualifier
	})
}

// AddressRefByLabel keeps records carrying the given label.
func AddressRefByLabel(label string) FilterFunc[AddressRefKey, AddressRef] {
	return addressRefFilter(func(record AddressRef) bool {
		return record.Labels.Contains(label)
	})
}

// ContractMetadataByChainSelector keeps records on the given chain.
func ContractMetadataByChainSelector(chainSelector uint64) FilterFunc[ContractMetadataKey, ContractMetadata] {
	return func(records []ContractMetadata) []ContractMetadata {
		filtered := make([]ContractMetadata, 0, len(records))
		for _, record := range records {
			if record.ChainSelector == chainSelector {
				filtered = append(filtered, record)
			}
		}

		return filtered
	}
}
