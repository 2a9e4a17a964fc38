package deployment

import (
	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/operations"
)

// ChangesetOutput is what a changeset produced. DataStore holds only the records the changeset
// added or changed; the caller merges it into the environment datastore.
type ChangesetOutput struct {
	DataStore datastore.MutableDataStore
	Reports   []operations.Report[any, any]
}

// ChangeSetV2 is a unit of change against an Environment, configured by C.
type ChangeSetV2[C any] interface {
	// Apply performs the change.
	Apply(e Environment, config C) (ChangesetOutput, error)
	// VerifyPreconditions checks config against the environment without side effects.
	VerifyPreconditions(e Environment, config C) error
}

// ChangeLogic applies a changeset.
type ChangeLogic[C any] func(e Environment, config C) (ChangesetOutput, error)

// PreconditionVerifier checks a changeset config.
type PreconditionVerifier[C any] func(e Environment, config C) error

var _ ChangeSetV2[any] = ChangeSetImpl[any]{}

// ChangeSetImpl is a ChangeSetV2 built from two functions.
type ChangeSetImpl[C any] struct {
	applyFunc  ChangeLogic[C]
	verifyFunc PreconditionVerifier[C]
}

// CreateChangeSet creates a ChangeSetV2 from its apply and verify functions.
func CreateChangeSet[C any](applyFunc ChangeLogic[C], verifyFunc PreconditionVerifier[C]) ChangeSetImpl[C] {
	return ChangeSetImpl[C]{applyFunc: applyFunc, verifyFunc: verifyFunc}
}

// Apply implements ChangeSetV2.
func (ccs ChangeSetImpl[C]) Apply(env Environment, config C) (ChangesetOutput, error) {
	return ccs.applyFunc(env, config)
}

// VerifyPreconditions implements ChangeSetV2. A nil verifier accepts every config.
func (ccs ChangeSetImpl[C]) VerifyPreconditions(env Environment, config C) error {
	if ccs.verifyFunc == nil {
		return nil
	}

	return ccs.verifyFunc(env, config)
}
