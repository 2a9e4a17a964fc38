package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deployed struct {
	Deployer     string `json:"deployer"`
	TerraAddress string `json:"terraAddress"`
	Instance     string
	internal     int
}

func TestFilterStructFields(t *testing.T) {
	t.Parallel()

	value := deployed{Deployer: "a", TerraAddress: "b", Instance: "c", internal: 1}

	tests := []struct {
		name    string
		value   any
		names   []string
		want    map[string]any
		wantErr string
	}{
		{
			name:  "all exported fields",
			value: value,
			want:  map[string]any{"deployer": "a", "terraAddress": "b", "Instance": "c"},
		},
		{
			name:  "by json and go names",
			value: &value,
			names: []string{"terraAddress", "Deployer"},
			want:  map[string]any{"terraAddress": "b", "Deployer": "a"},
		},
		{
			name:    "unknown field",
			value:   value,
			names:   []string{"internal"},
			wantErr: `has no field "internal"`,
		},
		{
			name:    "not a struct",
			value:   42,
			wantErr: "expected a struct",
		},
		{
			name:    "nil pointer",
			value:   (*deployed)(nil),
			wantErr: "nil struct pointer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FilterStructFields(tt.value, tt.names...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
