package datastore

import (
	"errors"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAddressRefNotFound = errors.New("no address ref record can be found for the provided key")
	ErrAddressRefExists   = errors.New("an address ref with the supplied key already exists")
)

// ContractType names the kind of a deployed contract.
type ContractType string

// String returns the string representation of the ContractType.
func (ct ContractType) String() string {
	return string(ct)
}

var _ UniqueRecord[AddressRefKey, AddressRef] = AddressRef{}

// AddressRef is the address of a deployed contract together with the key it is known by.
type AddressRef struct {
	// Address is the hex address of the contract.
	Address string `json:"address" yaml:"address"`
	// ChainSelector is the selector of the chain the contract lives on.
	ChainSelector uint64 `json:"chainSelector" yaml:"chainSelector"`
	// Labels are free-form tags.
	Labels LabelSet `json:"labels" yaml:"labels"`
	// Qualifier tells apart contracts sharing type and version on the same chain.
	Qualifier string `json:"qualifier" yaml:"qualifier"`
	// Type is the contract type.
	Type ContractType `json:"type" yaml:"type"`
	// Version is the contract version.
	Version *semver.Version `json:"version" yaml:"version"`
}

// Validate checks the fields that make up the key and the address.
func (r AddressRef) Validate() error {
	var errs []error
	if r.ChainSelector == 0 {
		errs = append(errs, errors.New("chain selector must be set"))
	}
	if r.Type == "" {
		errs = append(errs, errors.New("contract type must be set"))
	}
	if r.Version == nil {
		errs = append(errs, errors.New("version must be set"))
	}
	if !common.IsHexAddress(r.Address) {
		errs = append(errs, errors.New("address must be a hex address"))
	}

	return errors.Join(errs...)
}

// Clone returns a copy of the AddressRef.
func (r AddressRef) Clone() (AddressRef, error) {
	cloned := r
	cloned.Labels = r.Labels.Clone()
	if r.Version != nil {
		v := *r.Version
		cloned.Version = &v
	}

	return cloned, nil
}

// Equals reports whether every field of the two refs is the same.
func (r AddressRef) Equals(other AddressRef) bool {
	return r.Key().Equals(other.Key()) &&
		r.Address == other.Address &&
		r.Labels.Equal(other.Labels)
}

// Key returns the primary key of the AddressRef.
func (r AddressRef) Key() AddressRefKey {
	return NewAddressRefKey(r.ChainSelector, r.Type, r.Version, r.Qualifier)
}
