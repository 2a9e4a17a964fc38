package datastore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrContractMetadataNotFound = errors.New("no contract metadata record can be found for the provided key")
	ErrContractMetadataExists   = errors.New("a contract metadata record with the supplied key already exists")
)

var _ UniqueRecord[ContractMetadataKey, ContractMetadata] = ContractMetadata{}

// ContractMetadata holds free-form data about a deployed contract.
type ContractMetadata struct {
	Address       string `json:"address" yaml:"address"`
	ChainSelector uint64 `json:"chainSelector" yaml:"chainSelector"`
	// Metadata must survive a JSON round trip.
	Metadata any `json:"metadata" yaml:"metadata"`
}

// Clone returns a copy of the record. Metadata is copied through JSON.
func (r ContractMetadata) Clone() (ContractMetadata, error) {
	metaClone, err := clone(r.Metadata)
	if err != nil {
		return ContractMetadata{}, err
	}

	return ContractMetadata{
		Address:       r.Address,
		ChainSelector: r.ChainSelector,
		Metadata:      metaClone,
	}, nil
}

// Key returns the primary key of the record.
func (r ContractMetadata) Key() ContractMetadataKey {
	return NewContractMetadataKey(r.ChainSelector, r.Address)
}

// ContractMetadataKey identifies a ContractMetadata record.
type ContractMetadataKey interface {
	Comparable[ContractMetadataKey]
	fmt.Stringer

	Address() string
	ChainSelector() uint64
}

type contractMetadataKey struct {
	chainSelector uint64
	address       string
}

// NewContractMetadataKey creates a new ContractMetadataKey. Addresses compare case-insensitively.
func NewContractMetadataKey(chainSelector uint64, address string) ContractMetadataKey {
	return contractMetadataKey{chainSelector: chainSelector, address: address}
}

// Address returns the contract address.
func (k contractMetadataKey) Address() string { return k.address }

// ChainSelector returns the chain selector of the chain where the contract is deployed.
func (k contractMetadataKey) ChainSelector() uint64 { return k.chainSelector }

// Equals returns true if the two keys identify the same record.
func (k contractMetadataKey) Equals(other ContractMetadataKey) bool {
	if other == nil {
		return false
	}

	return k.chainSelector == other.ChainSelector() && strings.EqualFold(k.address, other.Address())
}

// String renders the key as "<selector>:<address>".
func (k contractMetadataKey) String() string {
	return fmt.Sprintf("%d:%s", k.chainSelector, k.address)
}

// As decodes the metadata of the record into T.
func As[T any](r ContractMetadata) (T, error) {
	var out T
	raw, err := clone(r.Metadata)
	if err != nil {
		return out, err
	}

	converted, err := convert[T](raw)
	if err != nil {
		return out, fmt.Errorf("metadata of %s: %w", r.Key(), err)
	}

	return converted, nil
}
