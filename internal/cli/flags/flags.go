// Package flags provides the flags shared by several opfactory commands.
//
// Command-specific flags are defined locally in the command file.
package flags

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// MustStringSlice returns the slice value, ignoring the error.
func MustStringSlice(s []string, _ error) []string { return s }

// Qualifier adds the --qualifier/-q flag selecting a factory in the datastore.
func Qualifier(cmd *cobra.Command) {
	cmd.Flags().StringP("qualifier", "q", "", "Qualifier of the factory in the datastore")
}

// Standard adds the --standard flag, a decimal or 0x prefixed standard code.
func Standard(cmd *cobra.Command) {
	cmd.Flags().String("standard", "0", "Standard code of the operation template")
}

// Controller adds the --controller flag.
func Controller(cmd *cobra.Command) {
	cmd.Flags().String("controller", common.Address{}.Hex(), "Controller address handed to the operation")
}

// ParseBig parses a decimal or 0x prefixed non-negative integer.
func ParseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid non-negative integer %q", s)
	}

	return n, nil
}

// ParseAddress parses a hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}

	return common.HexToAddress(s), nil
}

// ParseHashes parses 32 byte hex values.
func ParseHashes(values []string) ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, len(values))
	for _, v := range values {
		b := common.FromHex(v)
		if len(b) != common.HashLength {
			return nil, fmt.Errorf("invalid 32 byte value %q", v)
		}
		hashes = append(hashes, common.BytesToHash(b))
	}

	return hashes, nil
}
