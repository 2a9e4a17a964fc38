// Package operationfactory drives the OperationFactory lifecycle through the operations API.
//
// Operations perform one transaction each: deploying and initializing the Operation template,
// deploying the factory, handing the operator role over, registering a template under a
// standard code, seeding the terra address queue and building instances. The DeployFactory and
// BuildInstances sequences chain them, and the changesets of the same names run the sequences
// against a deployment.Environment and record the results in the datastore.
package operationfactory
