// Package sqlstore persists a datastore in a SQL database. Production uses postgres through
// lib/pq, tests use the in-memory ramsql driver.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	_ "github.com/lib/pq" // postgres driver

	"github.com/smartcontractkit/operation-factory/datastore"
	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// DriverPostgres is the database/sql driver name registered by lib/pq.
const DriverPostgres = "postgres"

// Store reads and writes address refs and contract metadata.
type Store struct {
	db   *sql.DB
	lggr logger.Logger
}

// Open connects to the database and creates the tables when missing.
func Open(ctx context.Context, driver, dsn string, lggr logger.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	s, err := New(ctx, db, lggr)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return s, nil
}

// New wraps an open database and creates the tables when missing.
func New(ctx context.Context, db *sql.DB, lggr logger.Logger) (*Store, error) {
	for _, stmt := range []string{schemaAddressRefs, schemaContractMetadata} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db, lggr: lggr.Named("sqlstore")}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts every record of ds in a single transaction.
func (s *Store) Save(ctx context.Context, ds datastore.DataStore) error {
	refs, err := ds.Addresses().Fetch()
	if err != nil {
		return err
	}
	metadata, err := ds.ContractMetadata().Fetch()
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ref := range refs {
			if err := upsertAddressRef(ctx, tx, ref); err != nil {
				return fmt.Errorf("address ref %s: %w", ref.Key(), err)
			}
		}
		for _, record := range metadata {
			if err := upsertContractMetadata(ctx, tx, record); err != nil {
				return fmt.Errorf("contract metadata %s: %w", record.Key(), err)
			}
		}
		s.lggr.Debugw("Saved datastore", "addressRefs", len(refs), "contractMetadata", len(metadata))

		return nil
	})
}

// Load reads every record into a new MemoryDataStore.
func (s *Store) Load(ctx context.Context) (*datastore.MemoryDataStore, error) {
	ds := datastore.NewMemoryDataStore()

	refs, err := s.AddressRefs(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if err := ds.Addresses().Add(ref); err != nil {
			return nil, fmt.Errorf("address ref %s: %w", ref.Key(), err)
		}
	}

	metadata, err := s.ContractMetadata(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range metadata {
		if err := ds.ContractMetadata().Add(record); err != nil {
			return nil, fmt.Errorf("contract metadata %s: %w", record.Key(), err)
		}
	}

	return ds, nil
}

// AddressRef returns the address ref with the given key.
func (s *Store) AddressRef(ctx context.Context, key datastore.AddressRefKey) (datastore.AddressRef, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chain_selector, contract_type, ref_version, qualifier, address, labels FROM address_refs
		WHERE chain_selector = $1 AND contract_type = $2 AND ref_version = $3 AND qualifier = $4`,
		formatSelector(key.ChainSelector()), key.Type().String(), versionString(key.Version()), key.Qualifier(),
	)

	ref, err := scanAddressRef(row)
	if errors.Is(err, sql.ErrNoRows) {
		return datastore.AddressRef{}, datastore.ErrAddressRefNotFound
	}

	return ref, err
}

// AddressRefs returns every address ref.
func (s *Store) AddressRefs(ctx context.Context) ([]datastore.AddressRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chain_selector, contract_type, ref_version, qualifier, address, labels FROM address_refs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query address refs: %w", err)
	}
	defer rows.Close()

	var refs []datastore.AddressRef
	for rows.Next() {
		ref, err := scanAddressRef(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

// ContractMetadata returns every contract metadata record.
func (s *Store) ContractMetadata(ctx context.Context) ([]datastore.ContractMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chain_selector, address, metadata FROM contract_metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract metadata: %w", err)
	}
	defer rows.Close()

	var records []datastore.ContractMetadata
	for rows.Next() {
		var selector, address, raw string
		if err := rows.Scan(&selector, &address, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan contract metadata: %w", err)
		}

		chainSelector, err := strconv.ParseUint(selector, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain selector %q: %w", selector, err)
		}
		var metadata any
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, fmt.Errorf("invalid metadata of %s: %w", address, err)
		}

		records = append(records, datastore.ContractMetadata{
			Address:       address,
			ChainSelector: chainSelector,
			Metadata:      metadata,
		})
	}

	return records, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func upsertAddressRef(ctx context.Context, tx *sql.Tx, ref datastore.AddressRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	args := []any{
		formatSelector(ref.ChainSelector), ref.Type.String(), versionString(ref.Version), ref.Qualifier,
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE address_refs SET address = $5, labels = $6
		WHERE chain_selector = $1 AND contract_type = $2 AND ref_version = $3 AND qualifier = $4`,
		append(args, ref.Address, ref.Labels.String())...,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO address_refs (chain_selector, contract_type, ref_version, qualifier, address, labels)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		append(args, ref.Address, ref.Labels.String())...,
	)

	return err
}

func upsertContractMetadata(ctx context.Context, tx *sql.Tx, record datastore.ContractMetadata) error {
	raw, err := json.Marshal(record.Metadata)
	if err != nil {
		return err
	}

	address := strings.ToLower(record.Address)
	res, err := tx.ExecContext(ctx,
		`UPDATE contract_metadata SET metadata = $3 WHERE chain_selector = $1 AND address = $2`,
		formatSelector(record.ChainSelector), address, string(raw),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contract_metadata (chain_selector, address, metadata) VALUES ($1, $2, $3)`,
		formatSelector(record.ChainSelector), address, string(raw),
	)

	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddressRef(row scanner) (datastore.AddressRef, error) {
	var selector, contractType, version, qualifier, address, labels string
	if err := row.Scan(&selector, &contractType, &version, &qualifier, &address, &labels); err != nil {
		return datastore.AddressRef{}, err
	}

	chainSelector, err := strconv.ParseUint(selector, 10, 64)
	if err != nil {
		return datastore.AddressRef{}, fmt.Errorf("invalid chain selector %q: %w", selector, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return datastore.AddressRef{}, fmt.Errorf("invalid version %q: %w", version, err)
	}

	return datastore.AddressRef{
		Address:       address,
		ChainSelector: chainSelector,
		Type:          datastore.ContractType(contractType),
		Version:       v,
		Qualifier:     qualifier,
		Labels:        datastore.NewLabelSet(strings.Fields(labels)...),
	}, nil
}

func formatSelector(selector uint64) string {
	return strconv.FormatUint(selector, 10)
}

func versionString(v *semver.Version) string {
	if v == nil {
		return ""
	}

	return v.String()
}
