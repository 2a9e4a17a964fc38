package datastore

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// AddressRefKey identifies an AddressRef.
type AddressRefKey interface {
	Comparable[AddressRefKey]
	fmt.Stringer

	ChainSelector() uint64
	Type() ContractType
	Version() *semver.Version
	Qualifier() string
}

var _ AddressRefKey = addressRefKey{}

type addressRefKey struct {
	chainSelector uint64
	contractType  ContractType
	version       *semver.Version
	qualifier     string
}

// ChainSelector returns the chain selector of the chain where the contract is deployed.
func (a addressRefKey) ChainSelector() uint64 { return a.chainSelector }

// Type returns the contract type.
func (a addressRefKey) Type() ContractType { return a.contractType }

// Version returns the contract version.
func (a addressRefKey) Version() *semver.Version { return a.version }

// Qualifier returns the qualifier, empty when unset.
func (a addressRefKey) Qualifier() string { return a.qualifier }

// Equals returns true if the two keys identify the same record.
func (a addressRefKey) Equals(other AddressRefKey) bool {
	if other == nil {
		return false
	}

	return a.chainSelector == other.ChainSelector() &&
		a.contractType == other.Type() &&
		versionsEqual(a.version, other.Version()) &&
		a.qualifier == other.Qualifier()
}

// String renders the key as "<selector>:<type>:<version>:<qualifier>".
func (a addressRefKey) String() string {
	version := ""
	if a.version != nil {
		version = a.version.String()
	}

	return fmt.Sprintf("%d:%s:%s:%s", a.chainSelector, a.contractType, version, a.qualifier)
}

// NewAddressRefKey creates a new AddressRefKey.
func NewAddressRefKey(chainSelector uint64, contractType ContractType, version *semver.Version, qualifier string) AddressRefKey {
	return addressRefKey{
		chainSelector: chainSelector,
		contractType:  contractType,
		version:       version,
		qualifier:     qualifier,
	}
}

func versionsEqual(a, b *semver.Version) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(b)
}
