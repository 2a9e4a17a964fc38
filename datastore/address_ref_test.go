package datastore

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRef() AddressRef {
	return AddressRef{
		Address:       "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		ChainSelector: 3379446385462418246,
		Type:          "OperationFactory",
		Version:       semver.MustParse("1.0.0"),
		Qualifier:     "main",
		Labels:        NewLabelSet("devnet"),
	}
}

func Test_AddressRef_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AddressRef)
		wantErr string
	}{
		{name: "valid", mutate: func(*AddressRef) {}},
		{name: "no selector", mutate: func(r *AddressRef) { r.ChainSelector = 0 }, wantErr: "chain selector must be set"},
		{name: "no type", mutate: func(r *AddressRef) { r.Type = "" }, wantErr: "contract type must be set"},
		{name: "no version", mutate: func(r *AddressRef) { r.Version = nil }, wantErr: "version must be set"},
		{name: "bad address", mutate: func(r *AddressRef) { r.Address = "0x1234" }, wantErr: "address must be a hex address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ref := newTestRef()
			tt.mutate(&ref)

			err := ref.Validate()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_AddressRef_CloneAndKey(t *testing.T) {
	t.Parallel()

	ref := newTestRef()
	cloned, err := ref.Clone()
	require.NoError(t, err)
	assert.True(t, ref.Equals(cloned))

	cloned.Labels.Add("other")
	assert.False(t, ref.Labels.Contains("other"))

	key := ref.Key()
	assert.Equal(t, "3379446385462418246:OperationFactory:1.0.0:main", key.String())
	assert.True(t, key.Equals(NewAddressRefKey(ref.ChainSelector, ref.Type, semver.MustParse("1.0.0"), "main")))
	assert.False(t, key.Equals(NewAddressRefKey(ref.ChainSelector, ref.Type, semver.MustParse("1.0.0"), "")))
	assert.False(t, key.Equals(NewAddressRefKey(ref.ChainSelector, ref.Type, nil, "main")))
	assert.False(t, key.Equals(nil))
}

func Test_ContractMetadataKey(t *testing.T) {
	t.Parallel()

	key := NewContractMetadataKey(1, "0xABCDEF")
	assert.True(t, key.Equals(NewContractMetadataKey(1, "0xabcdef")))
	assert.False(t, key.Equals(NewContractMetadataKey(2, "0xabcdef")))
	assert.Equal(t, "1:0xABCDEF", key.String())
}

func Test_As(t *testing.T) {
	t.Parallel()

	type meta struct {
		Standard uint64 `json:"standard"`
		Terra    string `json:"terra"`
	}

	got, err := As[meta](ContractMetadata{Metadata: map[string]any{"standard": 2, "terra": "0xbeef"}})
	require.NoError(t, err)
	assert.Equal(t, meta{Standard: 2, Terra: "0xbeef"}, got)

	_, err = As[meta](ContractMetadata{Metadata: map[string]any{"standard": "two"}})
	require.Error(t, err)
}
