package sim_test

import (
	"crypto/ecdsa"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm/sim"
)

const counterABI = `[
	{"type":"constructor","inputs":[{"name":"start","type":"uint256"}]},
	{"type":"function","name":"get","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"increment","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"fail","inputs":[{"name":"reason","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"spawn","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"staticIncrement","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"Incremented","inputs":[{"name":"by","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}],"anonymous":false}
]`

var counterParsed = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(counterABI))
	if err != nil {
		panic(err)
	}

	return parsed
}()

var slotCount = sim.Slot(0)

// newCounter returns a native counter used to exercise the ledger.
func newCounter() *sim.ABIContract {
	increment := func(env *sim.Env, _ []any) ([]any, error) {
		v := new(big.Int).Add(env.LoadBig(slotCount), common.Big1)
		env.StoreBig(slotCount, v)

		ev := counterParsed.Events["Incremented"]
		data, err := ev.Inputs.NonIndexed().Pack(v)
		if err != nil {
			return nil, err
		}
		env.Emit([]common.Hash{ev.ID, common.BytesToHash(env.Caller().Bytes())}, data)

		return nil, nil
	}

	return sim.NewABIContract("Counter", &counterParsed).
		OnConstruct(func(env *sim.Env, args []any) error {
			env.StoreBig(slotCount, args[0].(*big.Int))
			return nil
		}).
		Handle("get", func(env *sim.Env, _ []any) ([]any, error) {
			return []any{env.LoadBig(slotCount)}, nil
		}).
		Handle("increment", increment).
		Handle("fail", func(env *sim.Env, args []any) ([]any, error) {
			if _, err := increment(env, nil); err != nil {
				return nil, err
			}

			return nil, env.Revert(args[0].(string))
		}).
		Handle("spawn", func(env *sim.Env, _ []any) ([]any, error) {
			instance, err := env.Clone(env.CodeAddress())
			if err != nil {
				return nil, err
			}
			input, err := counterParsed.Pack("increment")
			if err != nil {
				return nil, err
			}
			if _, err := env.Call(instance, input, nil); err != nil {
				return nil, err
			}

			return []any{instance}, nil
		}).
		Handle("staticIncrement", func(env *sim.Env, _ []any) ([]any, error) {
			input, err := counterParsed.Pack("increment")
			if err != nil {
				return nil, err
			}
			_, err = env.StaticCall(env.Address(), input)

			return nil, err
		})
}

type testLedger struct {
	backend *sim.Backend
	client  *sim.Client
	key     *ecdsa.PrivateKey
	opts    *bind.TransactOpts
}

// newLedger starts a ledger with one funded account and the counter contract registered.
func newLedger(t *testing.T, opts ...sim.Option) *testLedger {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	alloc := types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))},
	}
	b := sim.NewBackend(alloc, append([]sim.Option{sim.WithContracts(newCounter())}, opts...)...)
	t.Cleanup(func() { _ = b.Close() })

	txOpts, err := bind.NewKeyedTransactorWithChainID(key, b.ChainID())
	require.NoError(t, err)

	return &testLedger{backend: b, client: b.Client(), key: key, opts: txOpts}
}

// deployCounter deploys a counter starting at start and waits for it to be mined.
func (l *testLedger) deployCounter(t *testing.T, start int64) (common.Address, *bind.BoundContract) {
	t.Helper()

	addr, tx, bound, err := bind.DeployContract(l.opts, counterParsed, sim.NativeBytecode("Counter"), l.client, big.NewInt(start))
	require.NoError(t, err)

	receipt, err := bind.WaitMined(t.Context(), l.client, tx)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, addr, receipt.ContractAddress)

	return addr, bound
}

func getCount(t *testing.T, bound *bind.BoundContract) *big.Int {
	t.Helper()

	var out []any
	require.NoError(t, bound.Call(&bind.CallOpts{Context: t.Context()}, &out, "get"))

	return out[0].(*big.Int)
}

// transfer returns a signed value transfer from key.
func transfer(t *testing.T, b *sim.Backend, key *ecdsa.PrivateKey, nonce uint64, to common.Address) *types.Transaction {
	t.Helper()

	return types.MustSignNewTx(key, b.Signer(), &types.DynamicFeeTx{
		ChainID:   b.ChainID(),
		Nonce:     nonce,
		GasTipCap: sim.DefaultGasTipCap,
		GasFeeCap: new(big.Int).Mul(sim.DefaultBaseFee, big.NewInt(2)),
		Gas:       params.TxGas,
		To:        &to,
		Value:     big.NewInt(1),
	})
}
