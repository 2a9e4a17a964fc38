package datastore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/operation-factory/helper"
)

// yamlDataStore is the file layout of an exported data store.
type yamlDataStore struct {
	AddressRefs      []yamlAddressRef   `yaml:"addressRefs"`
	ContractMetadata []ContractMetadata `yaml:"contractMetadata"`
}

type yamlAddressRef struct {
	Address       string   `yaml:"address"`
	ChainSelector uint64   `yaml:"chainSelector"`
	Type          string   `yaml:"type"`
	Version       string   `yaml:"version"`
	Qualifier     string   `yaml:"qualifier,omitempty"`
	Labels        LabelSet `yaml:"labels,omitempty"`
}

// WriteYAML writes every record of ds to w.
func WriteYAML(w io.Writer, ds DataStore) error {
	refs, err := ds.Addresses().Fetch()
	if err != nil {
		return err
	}
	metadata, err := ds.ContractMetadata().Fetch()
	if err != nil {
		return err
	}

	out := yamlDataStore{
		AddressRefs:      make([]yamlAddressRef, 0, len(refs)),
		ContractMetadata: make([]ContractMetadata, 0, len(metadata)),
	}
	for _, record := range metadata {
		plain, err := yamlValue(record.Metadata)
		if err != nil {
			return fmt.Errorf("contract metadata %s: %w", record.Key(), err)
		}
		record.Metadata = plain
		out.ContractMetadata = append(out.ContractMetadata, record)
	}
	for _, ref := range refs {
		version := ""
		if ref.Version != nil {
			version = ref.Version.String()
		}
		out.AddressRefs = append(out.AddressRefs, yamlAddressRef{
			Address:       ref.Address,
			ChainSelector: ref.ChainSelector,
			Type:          ref.Type.String(),
			Version:       version,
			Qualifier:     ref.Qualifier,
			Labels:        ref.Labels,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode datastore: %w", err)
	}

	return enc.Close()
}

// yamlValue converts v to plain maps, slices and scalars. Integers that fit int64 or uint64 are
// written as YAML integers; larger ones as decimal strings, which ReadYAML turns back into
// *big.Int.
func yamlValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var plain any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&plain); err != nil {
		return nil, err
	}

	return plainNumbers(plain), nil
}

func plainNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, vv := range x {
			x[k] = plainNumbers(vv)
		}

		return x
	case []any:
		for i := range x {
			x[i] = plainNumbers(x[i])
		}

		return x
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
			return u
		}
		if f, err := x.Float64(); err == nil && !isInteger(x.String()) {
			return f
		}

		return x.String()
	default:
		return v
	}
}

func isInteger(s string) bool {
	_, ok := new(big.Int).SetString(s, 10)
	return ok
}

// ReadYAML reads a data store written by WriteYAML. Metadata strings holding integers too large
// for uint64 are read back as *big.Int.
func ReadYAML(r io.Reader) (*MemoryDataStore, error) {
	var in yamlDataStore
	if err := yaml.NewDecoder(r).Decode(&in); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode datastore: %w", err)
	}

	ds := NewMemoryDataStore()
	for _, ref := range in.AddressRefs {
		version, err := semver.NewVersion(ref.Version)
		if err != nil {
			return nil, fmt.Errorf("address ref %s: invalid version %q: %w", ref.Address, ref.Version, err)
		}
		if err := ds.Addresses().Add(AddressRef{
			Address:       ref.Address,
			ChainSelector: ref.ChainSelector,
			Type:          ContractType(ref.Type),
			Version:       version,
			Qualifier:     ref.Qualifier,
			Labels:        ref.Labels,
		}); err != nil {
			return nil, fmt.Errorf("address ref %s: %w", ref.Address, err)
		}
	}
	for _, record := range in.ContractMetadata {
		record.Metadata = helper.CoerceBigIntStrings(record.Metadata)
		if err := ds.ContractMetadata().Add(record); err != nil {
			return nil, fmt.Errorf("contract metadata %s: %w", record.Key(), err)
		}
	}

	return ds, nil
}
