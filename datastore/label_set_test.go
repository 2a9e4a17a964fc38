package datastore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func Test_LabelSet(t *testing.T) {
	t.Parallel()

	labels := NewLabelSet("factory", "devnet", "factory")
	require.Equal(t, 2, labels.Length())
	assert.Equal(t, []string{"devnet", "factory"}, labels.List())
	assert.Equal(t, "devnet factory", labels.String())

	labels.Add("v1")
	assert.True(t, labels.Contains("v1"))
	labels.Remove("devnet")
	assert.False(t, labels.Contains("devnet"))

	cloned := labels.Clone()
	cloned.Add("extra")
	assert.False(t, labels.Contains("extra"))
	assert.False(t, labels.Equal(cloned))

	var empty LabelSet
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, empty.String())
	empty.Add("first")
	assert.Equal(t, 1, empty.Length())
}

func Test_LabelSet_Encoding(t *testing.T) {
	t.Parallel()

	labels := NewLabelSet("b", "a")

	raw, err := json.Marshal(labels)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	var fromJSON LabelSet
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.True(t, labels.Equal(fromJSON))

	rawYAML, err := yaml.Marshal(labels)
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b\n", string(rawYAML))

	var fromYAML LabelSet
	require.NoError(t, yaml.Unmarshal(rawYAML, &fromYAML))
	assert.True(t, labels.Equal(fromYAML))

	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &fromJSON))
}
