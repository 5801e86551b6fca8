package ports

// Store is a key/value store addressed by raw bytes.
// Get returns (nil, nil) for a missing key.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
}

// Transactional opens and closes strictly nested transactions.
// Commit folds the innermost transaction into its parent; Rollback discards it.
type Transactional interface {
	Begin() error
	Commit() error
	Rollback() error
	// Depth reports how many transactions are open.
	Depth() int
}

// TransactionalStore is a Store whose writes land in the innermost open
// transaction.
type TransactionalStore interface {
	Store
	Transactional

	// Prefix returns a view of the store with every key namespaced under
	// prefix. The view always writes to the innermost open transaction.
	Prefix(prefix []byte) Store
}
