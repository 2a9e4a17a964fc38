// Package helper holds small utilities shared by tests, changesets and the CLI: ABI parameter
// encoding, log and revert decoding, block time control and YAML number coercion.
package helper
