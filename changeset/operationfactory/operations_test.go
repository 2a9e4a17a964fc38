package operationfactory

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/operation-factory/chain/evm"
	"github.com/smartcontractkit/operation-factory/contracts/operation"
	"github.com/smartcontractkit/operation-factory/contracts/operationfactory"
	"github.com/smartcontractkit/operation-factory/engine/test/onchain"
	"github.com/smartcontractkit/operation-factory/operations"
	"github.com/smartcontractkit/operation-factory/operations/optest"
)

var (
	terra1 = common.HexToHash("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	terra2 = common.HexToHash("0xbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdead")
	terra3 = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000003")

	controller = common.HexToAddress("0x00000000000000000000000000000000000c0de1")
	standard   = big.NewInt(1)
)

func newTestChain(t *testing.T) evm.Chain {
	t.Helper()

	chains, err := onchain.NewEVMSimLoader().Load(t, []uint64{chainsel.GETH_TESTNET.Selector})
	require.NoError(t, err)
	require.Len(t, chains, 1)

	c, ok := chains[0].(evm.Chain)
	require.True(t, ok)

	return c
}

// deployFactory deploys a factory with a registered template, the user key as operator.
func deployFactory(t *testing.T, b operations.Bundle, c evm.Chain) DeployFactoryOutput {
	t.Helper()

	report, err := operations.ExecuteSequence(b, DeployFactorySeq, c, DeployFactoryInput{
		ChainSelector:      c.Selector,
		Standard:           standard,
		TemplateController: controller,
		Operator:           c.User(0).From,
	})
	require.NoError(t, err)

	return report.Output
}

func TestDeployOperationOp(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)

	report, err := operations.ExecuteOperation(b, DeployOperationOp, c, ChainInput{ChainSelector: c.Selector})
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, report.Output.Address)
	assert.NotZero(t, report.Output.BlockNumber)

	code, err := c.Client.CodeAt(t.Context(), report.Output.Address, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	// Same input, same bundle: the previous report is reused.
	again, err := operations.ExecuteOperation(b, DeployOperationOp, c, ChainInput{ChainSelector: c.Selector})
	require.NoError(t, err)
	assert.Equal(t, report.ID, again.ID)
}

func TestOperations_ChainMismatch(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)

	_, err := operations.ExecuteOperation(b, DeployOperationFactoryOp, c, ChainInput{ChainSelector: 1})
	require.ErrorContains(t, err, "input targets chain 1")
}

func TestInitializeOperationOp(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)

	deployed, err := operations.ExecuteOperation(b, DeployOperationOp, c, ChainInput{ChainSelector: c.Selector})
	require.NoError(t, err)

	input := InitializeOperationInput{
		ChainSelector: c.Selector,
		Operation:     deployed.Output.Address,
		Controller:    controller,
		TerraAddress:  terra1,
		Owner:         c.DeployerKey.From,
		Operator:      c.User(0).From,
	}
	_, err = operations.ExecuteOperation(b, InitializeOperationOp, c, input)
	require.NoError(t, err)

	op, err := operation.NewOperation(deployed.Output.Address, c.Client)
	require.NoError(t, err)
	gotTerra, err := op.TerraAddress(&bind.CallOpts{Context: t.Context()})
	require.NoError(t, err)
	assert.Equal(t, terra1, common.Hash(gotTerra))
	gotOperator, err := op.Operator(&bind.CallOpts{Context: t.Context()})
	require.NoError(t, err)
	assert.Equal(t, c.User(0).From, gotOperator)

	// A second initialization reverts; a fresh bundle bypasses the report reuse.
	_, err = operations.ExecuteOperation(optest.NewBundle(t), InitializeOperationOp, c, input)
	require.ErrorContains(t, err, "already initialized")
}

func TestDeployFactorySeq(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)

	report, err := operations.ExecuteSequence(b, DeployFactorySeq, c, DeployFactoryInput{
		ChainSelector:      c.Selector,
		Standard:           standard,
		TemplateController: controller,
		Operator:           c.User(0).From,
	})
	require.NoError(t, err)
	// template deploy, initialize, factory deploy, transfer operator, set standard, sequence
	require.Len(t, report.ExecutionReports, 6)
	assert.Equal(t, DeployFactorySeq.ID(), report.ExecutionReports[5].Def.ID)

	factory, err := operationfactory.NewOperationFactory(report.Output.Factory, c.Client)
	require.NoError(t, err)
	opts := &bind.CallOpts{Context: t.Context()}

	owner, err := factory.Owner(opts)
	require.NoError(t, err)
	assert.Equal(t, c.DeployerKey.From, owner)

	operator, err := factory.Operator(opts)
	require.NoError(t, err)
	assert.Equal(t, c.User(0).From, operator)
	assert.Equal(t, operator, report.Output.Operator)

	impl, err := factory.Standards(opts, standard)
	require.NoError(t, err)
	assert.Equal(t, report.Output.Template, impl)
}

func TestNewOperationRegistry(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)
	registry := NewOperationRegistry()
	require.Len(t, registry.Definitions(), 7)

	report, err := operations.ExecuteSequence(b, DeployFactorySeq, c, DeployFactoryInput{
		ChainSelector:      c.Selector,
		Standard:           standard,
		TemplateController: controller,
		Operator:           c.User(0).From,
	})
	require.NoError(t, err)

	opReports := report.ExecutionReports[:len(report.ExecutionReports)-1]
	for _, r := range opReports {
		op, err := registry.Retrieve(r.Def)
		require.NoError(t, err)
		assert.Equal(t, r.Def.Description, op.Description())
	}
	_, err = registry.Retrieve(DeployFactorySeq.Def())
	require.ErrorIs(t, err, operations.ErrOperationNotFound)

	// running the operation behind a stored report again returns that report
	deployTemplate := opReports[0]
	require.Equal(t, DeployOperationOp.ID(), deployTemplate.Def.ID)
	op, err := registry.Retrieve(deployTemplate.Def)
	require.NoError(t, err)
	replayed, err := operations.ExecuteOperation(b, op, any(c), deployTemplate.Input)
	require.NoError(t, err)
	assert.Equal(t, deployTemplate.ID, replayed.ID)
}

func TestDeployFactorySeq_DeployerKeepsOperator(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)

	report, err := operations.ExecuteSequence(b, DeployFactorySeq, c, DeployFactoryInput{
		ChainSelector: c.Selector,
		Standard:      big.NewInt(0),
	})
	require.NoError(t, err)
	require.Len(t, report.ExecutionReports, 5)
	assert.Equal(t, c.DeployerKey.From, report.Output.Operator)
}

func TestBuildInstancesSeq(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)
	deployed := deployFactory(t, b, c)

	report, err := operations.ExecuteSequence(b, BuildInstancesSeq,
		BuildDeps{Chain: c, Operator: c.User(0)},
		BuildInstancesInput{
			ChainSelector:  c.Selector,
			Factory:        deployed.Factory,
			Standard:       standard,
			Controller:     controller,
			TerraAddresses: []common.Hash{terra1, terra2},
		},
	)
	require.NoError(t, err)
	require.Len(t, report.Output.Instances, 2)

	opts := &bind.CallOpts{Context: t.Context()}
	for i, want := range []common.Hash{terra1, terra2} {
		built := report.Output.Instances[i]
		assert.Equal(t, want, built.TerraAddress)
		assert.Equal(t, c.User(0).From, built.Deployer)
		assert.NotEqual(t, deployed.Template, built.Instance)

		instance, err := operation.NewOperation(built.Instance, c.Client)
		require.NoError(t, err)
		gotTerra, err := instance.TerraAddress(opts)
		require.NoError(t, err)
		assert.Equal(t, want, common.Hash(gotTerra))
		gotController, err := instance.Controller(opts)
		require.NoError(t, err)
		assert.Equal(t, controller, gotController)
	}
	assert.NotEqual(t, report.Output.Instances[0].Instance, report.Output.Instances[1].Instance)

	factory, err := operationfactory.NewOperationFactory(deployed.Factory, c.Client)
	require.NoError(t, err)
	remaining, err := factory.RemainingTerraAddresses(opts)
	require.NoError(t, err)
	assert.Zero(t, remaining.Sign())
	count, err := factory.InstanceCount(opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Int64())
}

func TestBuildOp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		push    []common.Hash
		key     func(c evm.Chain) *bind.TransactOpts
		input   func(c evm.Chain, factory common.Address) BuildInput
		wantErr string
	}{
		{
			name: "missing operator key",
			key:  func(evm.Chain) *bind.TransactOpts { return nil },
			input: func(c evm.Chain, factory common.Address) BuildInput {
				return BuildInput{ChainSelector: c.Selector, Factory: factory, Standard: standard}
			},
			wantErr: "operator key is required",
		},
		{
			name: "empty queue",
			key:  func(c evm.Chain) *bind.TransactOpts { return c.User(0) },
			input: func(c evm.Chain, factory common.Address) BuildInput {
				return BuildInput{ChainSelector: c.Selector, Factory: factory, Standard: standard, ExpectedTerraAddress: terra1}
			},
			wantErr: operationfactory.ReasonQueueEmpty,
		},
		{
			name: "unexpected queue head",
			push: []common.Hash{terra2},
			key:  func(c evm.Chain) *bind.TransactOpts { return c.User(0) },
			input: func(c evm.Chain, factory common.Address) BuildInput {
				return BuildInput{ChainSelector: c.Selector, Factory: factory, Standard: standard, ExpectedTerraAddress: terra1}
			},
			wantErr: "expected " + terra1.Hex(),
		},
		{
			name: "not the operator",
			push: []common.Hash{terra1},
			key:  func(c evm.Chain) *bind.TransactOpts { return c.DeployerKey },
			input: func(c evm.Chain, factory common.Address) BuildInput {
				return BuildInput{ChainSelector: c.Selector, Factory: factory, Standard: standard, ExpectedTerraAddress: terra1}
			},
			wantErr: operationfactory.ReasonNotOperator,
		},
		{
			name: "standard not registered",
			push: []common.Hash{terra1},
			key:  func(c evm.Chain) *bind.TransactOpts { return c.User(0) },
			input: func(c evm.Chain, factory common.Address) BuildInput {
				return BuildInput{ChainSelector: c.Selector, Factory: factory, Standard: big.NewInt(42), ExpectedTerraAddress: terra1}
			},
			wantErr: operationfactory.ReasonStandardNotSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestChain(t)
			b := optest.NewBundle(t)
			deployed := deployFactory(t, b, c)

			if len(tt.push) > 0 {
				_, err := operations.ExecuteOperation(b, PushTerraAddressesOp, c, PushTerraAddressesInput{
					ChainSelector:  c.Selector,
					Factory:        deployed.Factory,
					TerraAddresses: tt.push,
				})
				require.NoError(t, err)
			}

			_, err := operations.ExecuteOperation(b, BuildOp,
				BuildDeps{Chain: c, Operator: tt.key(c)},
				tt.input(c, deployed.Factory),
				operations.WithRetry[BuildInput, BuildDeps](),
			)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOwnerOnlyOps_RevertForNonOwner(t *testing.T) {
	t.Parallel()

	c := newTestChain(t)
	b := optest.NewBundle(t)
	deployed := deployFactory(t, b, c)

	// Swap the keys so the user signs as deployer.
	impostor := c
	impostor.DeployerKey = c.User(0)

	_, err := operations.ExecuteOperation(b, PushTerraAddressesOp, impostor, PushTerraAddressesInput{
		ChainSelector:  c.Selector,
		Factory:        deployed.Factory,
		TerraAddresses: []common.Hash{terra1},
	})
	require.ErrorContains(t, err, operationfactory.ReasonNotOwner)

	_, err = operations.ExecuteOperation(b, SetStandardOperationOp, impostor, SetStandardOperationInput{
		ChainSelector: c.Selector,
		Factory:       deployed.Factory,
		Standard:      big.NewInt(2),
		Operation:     deployed.Template,
	})
	require.ErrorContains(t, err, operationfactory.ReasonNotOwner)

	_, err = operations.ExecuteOperation(b, TransferOperatorOp, c, TransferOperatorInput{
		ChainSelector: c.Selector,
		Factory:       deployed.Factory,
	})
	require.ErrorContains(t, err, operationfactory.ReasonZeroAddress)
}
