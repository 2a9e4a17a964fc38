package runtime

import (
	"fmt"
	"sync"

	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/deployment"
)

// State is what the executed tasks produced so far. All modifications hold the mutex.
type State struct {
	mu sync.Mutex

	DataStore datastore.DataStore                   // Address references and metadata of every task
	Outputs   map[string]deployment.ChangesetOutput // Changeset outputs keyed by task ID
}

func seedStateFromEnvironment(e deployment.Environment) *State {
	return &State{
		DataStore: e.DataStore,
		Outputs:   make(map[string]deployment.ChangesetOutput),
	}
}

// MergeChangesetOutput merges the datastore of out into the state and records out under id.
func (s *State) MergeChangesetOutput(id string, out deployment.ChangesetOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mergeDataStore(out); err != nil {
		return fmt.Errorf("failed to update datastore state: %w", err)
	}

	s.Outputs[id] = out

	return nil
}

// mergeDataStore replaces the state datastore with a sealed union of it and the output.
func (s *State) mergeDataStore(out deployment.ChangesetOutput) error {
	if out.DataStore == nil {
		return nil
	}

	ds := datastore.NewMemoryDataStore()
	if err := ds.Merge(s.DataStore); err != nil {
		return fmt.Errorf("failed to merge existing datastore: %w", err)
	}
	if err := ds.Merge(out.DataStore.Seal()); err != nil {
		return fmt.Errorf("failed to merge output datastore: %w", err)
	}

	s.DataStore = ds.Seal()

	return nil
}
