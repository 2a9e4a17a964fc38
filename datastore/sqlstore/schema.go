package sqlstore

// Chain selectors exceed the range of a signed bigint and are stored as decimal text.
const (
	schemaAddressRefs = `CREATE TABLE IF NOT EXISTS address_refs (
		chain_selector TEXT NOT NULL,
		contract_type  TEXT NOT NULL,
		ref_version    TEXT NOT NULL,
		qualifier      TEXT NOT NULL,
		address        TEXT NOT NULL,
		labels         TEXT NOT NULL
	)`

	schemaContractMetadata = `CREATE TABLE IF NOT EXISTS contract_metadata (
		chain_selector TEXT NOT NULL,
		address        TEXT NOT NULL,
		metadata       TEXT NOT NULL
	)`
)
