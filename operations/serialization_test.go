package operations

import (
	"math/big"
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

type buildInput struct {
	Standard   *big.Int       `json:"standard"`
	Controller common.Address `json:"controller"`
	Terra      []common.Hash  `json:"terra"`
}

func Test_IsSerializable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "nil", value: nil, want: true},
		{name: "int", value: 42, want: true},
		{name: "string", value: "terra", want: true},
		{
			name: "chain types",
			value: buildInput{
				Standard:   big.NewInt(1),
				Controller: common.HexToAddress("0x1"),
				Terra:      []common.Hash{common.HexToHash("0xdeadbeef")},
			},
			want: true,
		},
		{name: "map", value: map[string]int{"a": 1}, want: true},
		{name: "func", value: func() {}, want: false},
		{name: "channel", value: make(chan int), want: false},
		{
			name: "unexported field",
			value: struct {
				A      int
				hidden string
			}{A: 1, hidden: "x"},
			want: false,
		},
		{
			name: "skipped field",
			value: struct {
				A int
				B func() `json:"-"`
			}{A: 1},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, IsSerializable(logger.Test(t), tt.value))
		})
	}
}

func Test_hashDefinitionInput(t *testing.T) {
	t.Parallel()

	def := Definition{ID: "build", Version: semver.MustParse("1.0.0"), Description: "build"}

	typed, err := hashDefinitionInput(def, buildInput{Standard: big.NewInt(1)})
	require.NoError(t, err)

	// reports read back from storage carry generic maps
	generic, err := hashDefinitionInput(def, map[string]any{
		"standard":   1,
		"controller": "0x0000000000000000000000000000000000000000",
		"terra":      nil,
	})
	require.NoError(t, err)
	assert.Equal(t, typed, generic)

	other, err := hashDefinitionInput(def, buildInput{Standard: big.NewInt(2)})
	require.NoError(t, err)
	assert.NotEqual(t, typed, other)

	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	hugeHash, err := hashDefinitionInput(def, buildInput{Standard: huge})
	require.NoError(t, err)
	nextHash, err := hashDefinitionInput(def, buildInput{Standard: new(big.Int).Add(huge, big.NewInt(1))})
	require.NoError(t, err)
	assert.NotEqual(t, hugeHash, nextHash)

	def.Version = semver.MustParse("1.1.0")
	bumped, err := hashDefinitionInput(def, buildInput{Standard: big.NewInt(1)})
	require.NoError(t, err)
	assert.NotEqual(t, typed, bumped)
}

func Test_cachedReportHash(t *testing.T) {
	t.Parallel()

	def := Definition{ID: "push", Version: semver.MustParse("1.0.0")}
	report := genericReport(NewReport(def, 1, 2, nil))
	cache := &sync.Map{}

	hash, err := cachedReportHash(cache, report)
	require.NoError(t, err)

	cached, ok := cache.Load(report.ID)
	require.True(t, ok)
	assert.Equal(t, hash, cached)

	// a cached entry wins over the report content
	report.Input = 5
	again, err := cachedReportHash(cache, report)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	uncached, err := cachedReportHash(nil, report)
	require.NoError(t, err)
	assert.NotEqual(t, hash, uncached)
}
