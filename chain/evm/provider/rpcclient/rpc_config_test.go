package rpcclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLSchemePreferenceFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give    string
		want    URLSchemePreference
		wantErr string
	}{
		{give: "", want: URLSchemePreferenceNone},
		{give: "ws", want: URLSchemePreferenceWS},
		{give: "WSS", want: URLSchemePreferenceWS},
		{give: " http ", want: URLSchemePreferenceHTTP},
		{give: "https", want: URLSchemePreferenceHTTP},
		{give: "grpc", wantErr: `invalid URL scheme preference "grpc"`},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got, err := URLSchemePreferenceFromString(tt.give)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRPC_ToEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    RPC
		want    string
		wantErr string
	}{
		{
			name: "http preferred",
			give: RPC{Name: "a", HTTPURL: "http://localhost:8545", WSURL: "ws://localhost:8546", PreferredURLScheme: URLSchemePreferenceHTTP},
			want: "http://localhost:8545",
		},
		{
			name: "ws preferred",
			give: RPC{Name: "a", HTTPURL: "http://localhost:8545", WSURL: "ws://localhost:8546", PreferredURLScheme: URLSchemePreferenceWS},
			want: "ws://localhost:8546",
		},
		{
			name: "no preference picks ws",
			give: RPC{Name: "a", HTTPURL: "http://localhost:8545", WSURL: "ws://localhost:8546"},
			want: "ws://localhost:8546",
		},
		{
			name: "no preference falls back to http",
			give: RPC{Name: "a", HTTPURL: "http://localhost:8545"},
			want: "http://localhost:8545",
		},
		{
			name:    "missing preferred url",
			give:    RPC{Name: "a", WSURL: "ws://localhost:8546", PreferredURLScheme: URLSchemePreferenceHTTP},
			wantErr: `rpc "a" prefers http but has no http url`,
		},
		{
			name:    "no url",
			give:    RPC{Name: "a"},
			wantErr: "rpc a has no url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.give.ToEndpoint()
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
