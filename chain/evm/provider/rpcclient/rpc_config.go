package rpcclient

import (
	"errors"
	"fmt"
	"strings"
)

// URLSchemePreference selects which endpoint of an RPC is dialed.
type URLSchemePreference int

const (
	URLSchemePreferenceNone URLSchemePreference = iota
	URLSchemePreferenceWS
	URLSchemePreferenceHTTP
)

// URLSchemePreferenceFromString converts a string to URLSchemePreference. The empty string maps
// to URLSchemePreferenceNone.
func URLSchemePreferenceFromString(s string) (URLSchemePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return URLSchemePreferenceNone, nil
	case "ws", "wss":
		return URLSchemePreferenceWS, nil
	case "http", "https":
		return URLSchemePreferenceHTTP, nil
	default:
		return URLSchemePreferenceNone, fmt.Errorf("invalid URL scheme preference %q", s)
	}
}

// String returns the configuration value of the preference.
func (p URLSchemePreference) String() string {
	switch p {
	case URLSchemePreferenceWS:
		return "ws"
	case URLSchemePreferenceHTTP:
		return "http"
	default:
		return ""
	}
}

// RPC represents a single RPC endpoint configuration.
type RPC struct {
	Name               string
	WSURL              string
	HTTPURL            string
	PreferredURLScheme URLSchemePreference
}

// ToEndpoint returns the URL to dial. Without a preference the websocket URL wins, since log
// subscriptions need it.
func (r RPC) ToEndpoint() (string, error) {
	switch r.PreferredURLScheme {
	case URLSchemePreferenceHTTP:
		if r.HTTPURL == "" {
			return "", fmt.Errorf("rpc %q prefers http but has no http url", r.Name)
		}

		return r.HTTPURL, nil
	case URLSchemePreferenceWS:
		if r.WSURL == "" {
			return "", fmt.Errorf("rpc %q prefers ws but has no ws url", r.Name)
		}

		return r.WSURL, nil
	case URLSchemePreferenceNone:
		if r.WSURL != "" {
			return r.WSURL, nil
		}
		if r.HTTPURL != "" {
			return r.HTTPURL, nil
		}
	}

	return "", errors.New("rpc " + r.Name + " has no url")
}

// RPCConfig is a configuration for a chain.
// It contains a chain selector and a list of RPCs
type RPCConfig struct {
	ChainSelector uint64
	RPCs          []RPC
}
