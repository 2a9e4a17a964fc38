package sim

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract is a contract runtime implemented in Go. The ledger stores NativeBytecode(Name()) as
// the contract code and routes every message call to Run. Contracts hold no state of their own:
// everything lives in the storage reachable through the Env.
type Contract interface {
	// Name is the identifier embedded in the contract code.
	Name() string
	// Construct runs the constructor with the ABI encoded constructor arguments.
	Construct(env *Env, args []byte) error
	// Run executes a message call and returns the ABI encoded output.
	Run(env *Env, input []byte) ([]byte, error)
}

// Registry holds the native contracts a ledger can execute.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]Contract
}

// NewRegistry creates a registry holding contracts.
func NewRegistry(contracts ...Contract) *Registry {
	r := &Registry{contracts: make(map[string]Contract, len(contracts))}
	r.Register(contracts...)

	return r
}

// Register adds contracts to the registry, replacing any contract registered under the same name.
func (r *Registry) Register(contracts ...Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range contracts {
		r.contracts[c.Name()] = c
	}
}

// Lookup returns the contract registered under name.
func (r *Registry) Lookup(name string) (Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[name]

	return c, ok
}

// MethodHandler handles a decoded method call and returns the values to ABI encode as output.
type MethodHandler func(env *Env, args []any) ([]any, error)

// ConstructorHandler handles the decoded constructor arguments.
type ConstructorHandler func(env *Env, args []any) error

type methodEntry struct {
	method  abi.Method
	handler MethodHandler
}

// ABIContract is a Contract dispatching calls by ABI method selector.
type ABIContract struct {
	name        string
	abi         *abi.ABI
	constructor ConstructorHandler
	methods     map[string]methodEntry
}

var _ Contract = (*ABIContract)(nil)

// NewABIContract creates a contract named name implementing the methods of parsed.
func NewABIContract(name string, parsed *abi.ABI) *ABIContract {
	return &ABIContract{
		name:    name,
		abi:     parsed,
		methods: make(map[string]methodEntry),
	}
}

// OnConstruct sets the constructor handler.
func (c *ABIContract) OnConstruct(fn ConstructorHandler) *ABIContract {
	c.constructor = fn
	return c
}

// Handle registers fn as the handler of the ABI method named method. It panics when the ABI has
// no such method, which is a programming error in the contract definition.
func (c *ABIContract) Handle(method string, fn MethodHandler) *ABIContract {
	m, ok := c.abi.Methods[method]
	if !ok {
		panic(fmt.Sprintf("contract %s: no method %q in ABI", c.name, method))
	}
	c.methods[string(m.ID)] = methodEntry{method: m, handler: fn}

	return c
}

// Name implements Contract.
func (c *ABIContract) Name() string {
	return c.name
}

// ABI returns the contract ABI.
func (c *ABIContract) ABI() *abi.ABI {
	return c.abi
}

// Construct implements Contract.
func (c *ABIContract) Construct(env *Env, args []byte) error {
	if env.Value().Sign() > 0 && !c.abi.Constructor.Payable {
		return env.RevertData(nil)
	}

	values, err := c.abi.Constructor.Inputs.Unpack(args)
	if err != nil {
		return env.RevertData(nil)
	}
	if c.constructor == nil {
		return nil
	}

	return c.constructor(env, values)
}

// Run implements Contract.
func (c *ABIContract) Run(env *Env, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, env.RevertData(nil)
	}

	entry, ok := c.methods[string(input[:4])]
	if !ok {
		return nil, env.RevertData(nil)
	}
	if env.Value().Sign() > 0 && !entry.method.Payable {
		return nil, env.RevertData(nil)
	}

	args, err := entry.method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, env.RevertData(nil)
	}

	out, err := entry.handler(env, args)
	if err != nil {
		return nil, err
	}

	return entry.method.Outputs.Pack(out...)
}
