package operations

import (
	"errors"
	"fmt"
)

// ErrOperationNotFound is returned when a registry holds no operation for a definition.
var ErrOperationNotFound = errors.New("operation not found in registry")

// OperationRegistry looks up operations by definition, for example to run again the operation
// behind a stored report.
type OperationRegistry struct {
	ops []*Operation[any, any, any]
}

// NewOperationRegistry creates a registry holding the given untyped operations.
func NewOperationRegistry(ops ...*Operation[any, any, any]) *OperationRegistry {
	return &OperationRegistry{
		ops: ops,
	}
}

// Retrieve returns the operation whose ID and version match def.
func (r *OperationRegistry) Retrieve(def Definition) (*Operation[any, any, any], error) {
	for _, op := range r.ops {
		if op.def.ID == def.ID && def.Version != nil && op.def.Version.Equal(def.Version) {
			return op, nil
		}
	}

	return nil, fmt.Errorf("%w: %s %s", ErrOperationNotFound, def.ID, versionString(def))
}

// Definitions returns the definitions of the registered operations in registration order.
func (r *OperationRegistry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.ops))
	for _, op := range r.ops {
		defs = append(defs, op.def)
	}

	return defs
}

// RegisterOperation adds ops to r. Call it once per set of input, output and dependency types.
func RegisterOperation[IN, OUT, DEP any](r *OperationRegistry, ops ...*Operation[IN, OUT, DEP]) {
	for _, op := range ops {
		r.ops = append(r.ops, op.AsUntyped())
	}
}

func versionString(def Definition) string {
	if def.Version == nil {
		return "<nil>"
	}

	return def.Version.String()
}
