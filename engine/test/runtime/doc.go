// Package runtime executes changesets in tests against an environment that accumulates their
// results.
//
// A Runtime holds a State seeded from an environment. Each Executable runs against the current
// environment and merges its output into the State; the runtime then regenerates the
// environment so the next task sees every record written before it. Execution stops at the
// first failing task.
//
//	func TestBuildInstances(t *testing.T) {
//		rt, err := runtime.New(t.Context(), runtime.WithEnvOpts(
//			testenv.WithEVMSimulatedN(t, 1),
//		))
//		require.NoError(t, err)
//
//		err = rt.Exec(
//			runtime.ChangesetTask(operationfactory.DeployFactoryChangeset, deployCfg),
//			runtime.ChangesetTask(operationfactory.BuildInstancesChangeset, buildCfg),
//		)
//		require.NoError(t, err)
//
//		refs, err := rt.State().DataStore.Addresses().Fetch()
//		require.NoError(t, err)
//	}
//
// Create a new runtime for each test. Exec is safe for concurrent use but runs tasks one at a
// time.
package runtime
