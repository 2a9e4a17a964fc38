package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// EncodeParameters ABI-encodes values as the tuple described by typeNames, e.g.
// EncodeParameters([]string{"address", "bytes32"}, []any{addr, hash}).
func EncodeParameters(typeNames []string, values []any) ([]byte, error) {
	if len(typeNames) != len(values) {
		return nil, fmt.Errorf("got %d types and %d values", len(typeNames), len(values))
	}

	args := make(abi.Arguments, 0, len(typeNames))
	for _, name := range typeNames {
		ty, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("invalid type %q: %w", name, err)
		}
		args = append(args, abi.Argument{Type: ty})
	}

	return args.Pack(values...)
}

// LogDescription is a log decoded against a contract ABI.
type LogDescription struct {
	Name      string
	Signature string
	Topic     common.Hash
	Args      map[string]any
}

// ParseLog finds the event of contractABI matching the first topic of log and decodes its
// indexed and non-indexed arguments by name.
func ParseLog(contractABI *abi.ABI, log types.Log) (*LogDescription, error) {
	if len(log.Topics) == 0 {
		return nil, errors.New("log has no topics")
	}

	event, err := contractABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, err
	}

	args := make(map[string]any, len(event.Inputs))
	if len(log.Data) > 0 {
		if err := event.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", event.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", event.Name, err)
	}

	return &LogDescription{
		Name:      event.Name,
		Signature: event.Sig,
		Topic:     event.ID,
		Args:      args,
	}, nil
}

// RevertReason extracts the Error(string) reason of a reverted call or transaction, either from
// the revert data a node attaches to the JSON-RPC error or from the error text.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, derr := hexutil.Decode(data); derr == nil {
				if reason, uerr := abi.UnpackRevert(raw); uerr == nil {
					return reason, true
				}
			}
		}
	}

	const prefix = "execution reverted: "
	if i := strings.Index(err.Error(), prefix); i >= 0 {
		return err.Error()[i+len(prefix):], true
	}

	return "", false
}
