/*
Package operations runs the steps of a factory lifecycle as versioned, reportable units.

An Operation performs at most one side effect, such as sending one transaction. A Sequence
composes operations, for example deploying the template, deploying the factory and registering
the template under a standard code. Every execution produces a Report holding the definition,
input, output and error. Reports are kept by a Reporter. An execution whose definition and input
match an earlier successful report is skipped and the earlier report is returned, so an
interrupted sequence can be resumed.

	op := operations.NewOperation("deploy-factory", semver.MustParse("1.0.0"),
		"Deploys the OperationFactory contract", handler)

	b := operations.NewBundle(ctx.Context, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(b, op, chain, operations.EmptyInput{})
*/
package operations
