// Package storage implements ports.TransactionalStore on avalanchego's
// database primitives. Every open transaction is a versiondb layer over the
// one below it; the base is any database.Database, typically memdb.
package storage

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/reglet-dev/cwvm/domain/ports"
)

// ErrNoTransaction is returned by Commit and Rollback when nothing is open.
var ErrNoTransaction = errors.New("no open transaction")

var _ ports.TransactionalStore = (*Store)(nil)

// Store is a strictly nested transactional key/value store. It is not safe
// for concurrent use.
type Store struct {
	base   database.Database
	layers []*versiondb.Database
}

// New wraps db. Writes made outside any transaction go straight to db.
func New(db database.Database) *Store {
	return &Store{base: db}
}

// NewMemory returns a Store over a fresh in-memory database.
func NewMemory() *Store {
	return New(memdb.New())
}

func (s *Store) top() database.Database {
	if n := len(s.layers); n > 0 {
		return s.layers[n-1]
	}
	return s.base
}

func get(db database.Database, key []byte) ([]byte, error) {
	v, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []byte{}, nil
	}
	return v, nil
}

// Get implements ports.Store.
func (s *Store) Get(key []byte) ([]byte, error) { return get(s.top(), key) }

// Set implements ports.Store.
func (s *Store) Set(key, value []byte) error { return s.top().Put(key, value) }

// Delete implements ports.Store.
func (s *Store) Delete(key []byte) error { return s.top().Delete(key) }

// Has implements ports.Store.
func (s *Store) Has(key []byte) (bool, error) { return s.top().Has(key) }

// Begin opens a transaction on top of the current one.
func (s *Store) Begin() error {
	s.layers = append(s.layers, versiondb.New(s.top()))
	return nil
}

// Commit writes the innermost transaction into its parent.
func (s *Store) Commit() error {
	n := len(s.layers)
	if n == 0 {
		return ErrNoTransaction
	}
	layer := s.layers[n-1]
	if err := layer.Commit(); err != nil {
		return fmt.Errorf("commit transaction %d: %w", n, err)
	}
	s.layers = s.layers[:n-1]
	return nil
}

// Rollback discards the innermost transaction.
func (s *Store) Rollback() error {
	n := len(s.layers)
	if n == 0 {
		return ErrNoTransaction
	}
	s.layers[n-1].Abort()
	s.layers = s.layers[:n-1]
	return nil
}

// Depth implements ports.Transactional.
func (s *Store) Depth() int { return len(s.layers) }

// Prefix implements ports.TransactionalStore.
func (s *Store) Prefix(prefix []byte) ports.Store {
	return &prefixed{store: s, prefix: append([]byte(nil), prefix...)}
}

// Close closes the base database. Open transactions are discarded.
func (s *Store) Close() error {
	for len(s.layers) > 0 {
		_ = s.Rollback()
	}
	return s.base.Close()
}

// prefixed resolves the innermost layer on every access, so a view taken
// before Begin still writes into the new transaction.
type prefixed struct {
	store  *Store
	prefix []byte
}

func (p *prefixed) db() database.Database { return prefixdb.New(p.prefix, p.store.top()) }

func (p *prefixed) Get(key []byte) ([]byte, error) { return get(p.db(), key) }

func (p *prefixed) Set(key, value []byte) error { return p.db().Put(key, value) }

func (p *prefixed) Delete(key []byte) error { return p.db().Delete(key) }

func (p *prefixed) Has(key []byte) (bool, error) { return p.db().Has(key) }
