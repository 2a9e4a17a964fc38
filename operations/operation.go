package operations

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// OperationHandler is the function signature of an operation handler.
type OperationHandler[IN, OUT, DEP any] func(b Bundle, deps DEP, input IN) (output OUT, err error)

// Definition identifies an operation or a sequence. Two executions with the same definition and
// the same input are considered the same execution.
type Definition struct {
	ID          string          `json:"id"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
}

// Operation is a single step of a lifecycle, with typed input, output and dependencies.
// A handler should perform at most one side effect.
type Operation[IN, OUT, DEP any] struct {
	def     Definition
	handler OperationHandler[IN, OUT, DEP]
}

// NewOperation creates a new operation.
func NewOperation[IN, OUT, DEP any](
	id string, version *semver.Version, description string, handler OperationHandler[IN, OUT, DEP],
) *Operation[IN, OUT, DEP] {
	return &Operation[IN, OUT, DEP]{
		def: Definition{
			ID:          id,
			Version:     version,
			Description: description,
		},
		handler: handler,
	}
}

// ID returns the operation ID.
func (o *Operation[IN, OUT, DEP]) ID() string {
	return o.def.ID
}

// Version returns the operation version.
func (o *Operation[IN, OUT, DEP]) Version() string {
	return o.def.Version.String()
}

// Description returns the operation description.
func (o *Operation[IN, OUT, DEP]) Description() string {
	return o.def.Description
}

// Def returns the operation definition.
func (o *Operation[IN, OUT, DEP]) Def() Definition {
	return o.def
}

func (o *Operation[IN, OUT, DEP]) execute(b Bundle, deps DEP, input IN) (OUT, error) {
	b.Logger.Infow("Executing operation",
		"id", o.def.ID, "version", o.def.Version, "description", o.def.Description)

	return o.handler(b, deps, input)
}

// EmptyInput is the input of operations that take none.
type EmptyInput struct{}

// AsUntyped erases the input, output and dependency types of the operation so it can be stored
// next to operations of other types. The returned operation fails when called with an input or
// dependencies of the wrong type.
func (o *Operation[IN, OUT, DEP]) AsUntyped() *Operation[any, any, any] {
	return &Operation[any, any, any]{
		def: o.def,
		handler: func(b Bundle, deps any, input any) (any, error) {
			var typedInput IN
			if input != nil {
				var ok bool
				if typedInput, ok = input.(IN); !ok {
					return nil, fmt.Errorf("input type mismatch: got %T", input)
				}
			}

			var typedDeps DEP
			if deps != nil {
				var ok bool
				if typedDeps, ok = deps.(DEP); !ok {
					return nil, fmt.Errorf("dependencies type mismatch: got %T", deps)
				}
			}

			return o.handler(b, typedDeps, typedInput)
		},
	}
}
