package runtime

import (
	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/operation-factory/deployment"
)

// Executable is a task the runtime can run.
type Executable interface {
	// ID returns a unique identifier for this task.
	ID() string

	// Run executes the task against e and records what it produced in state.
	Run(e deployment.Environment, state *State) error
}

type baseTask struct {
	id string
}

func newBaseTask() *baseTask {
	return &baseTask{
		id: ksuid.New().String(),
	}
}

// ID returns the unique identifier for this task.
func (t *baseTask) ID() string {
	return t.id
}
