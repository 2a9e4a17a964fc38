package runtime

import (
	"github.com/smartcontractkit/operation-factory/deployment"
)

var _ Executable = &changesetTask[any]{}

// ChangesetTask creates a task that verifies and applies changeset with config.
func ChangesetTask[C any](changeset deployment.ChangeSetV2[C], config C) changesetTask[C] {
	return changesetTask[C]{
		baseTask: newBaseTask(),

		changeset: changeset,
		config:    config,
	}
}

type changesetTask[C any] struct {
	*baseTask

	changeset deployment.ChangeSetV2[C]
	config    C
}

// Run applies the changeset and merges its output into state.
func (r changesetTask[C]) Run(e deployment.Environment, state *State) error {
	output, err := r.applyChangeset(e)
	if err != nil {
		return err
	}

	return state.MergeChangesetOutput(r.ID(), output)
}

func (r changesetTask[C]) applyChangeset(e deployment.Environment) (deployment.ChangesetOutput, error) {
	if err := r.changeset.VerifyPreconditions(e, r.config); err != nil {
		return deployment.ChangesetOutput{}, err
	}

	return r.changeset.Apply(e, r.config)
}
