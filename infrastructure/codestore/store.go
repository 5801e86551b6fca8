// Package codestore persists contract code blobs in badger, keyed by their
// sha256 checksum, with a bigcache read cache in front.
package codestore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/allegro/bigcache/v3"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"go.uber.org/zap"
)

var codePrefix = []byte("code/")

type storeConfig struct {
	logger      *zap.Logger
	dir         string
	cacheSizeMB int
	cacheTTL    time.Duration
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		logger:      zap.NewNop(),
		cacheSizeMB: 64,
		cacheTTL:    time.Hour,
	}
}

// Option configures a Store.
type Option func(*storeConfig)

// WithDir persists blobs under dir. Without it the store is in-memory.
func WithDir(dir string) Option {
	return func(c *storeConfig) {
		c.dir = dir
	}
}

// WithCacheSize caps the read cache, in megabytes. Zero disables the cap.
func WithCacheSize(mb int) Option {
	return func(c *storeConfig) {
		c.cacheSizeMB = mb
	}
}

// WithCacheTTL sets how long a blob stays cached after it was last stored
// or loaded.
func WithCacheTTL(d time.Duration) Option {
	return func(c *storeConfig) {
		c.cacheTTL = d
	}
}

// WithLogger sets the logger for the store and for badger itself.
func WithLogger(logger *zap.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

var _ ports.CodeStore = (*Store)(nil)

// Store implements ports.CodeStore. It is safe for concurrent use.
type Store struct {
	db     *badgerdb.DB
	cache  *bigcache.BigCache
	logger *zap.Logger
}

// Open opens (or creates) a code store.
func Open(opts ...Option) (*Store, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var dbOpts badgerdb.Options
	if cfg.dir == "" {
		dbOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.dir, 0o700); err != nil {
			return nil, fmt.Errorf("create code store dir: %w", err)
		}
		dbOpts = badgerdb.DefaultOptions(cfg.dir)
	}
	dbOpts.Logger = badgerLogger{cfg.logger.Sugar().With("component", "badger")}

	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open code store: %w", err)
	}

	cacheCfg := bigcache.DefaultConfig(cfg.cacheTTL)
	cacheCfg.HardMaxCacheSize = cfg.cacheSizeMB
	cacheCfg.Shards = 64
	cacheCfg.Verbose = false
	cache, err := bigcache.New(context.Background(), cacheCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create code cache: %w", err), db.Close())
	}

	cfg.logger.Info("code store opened",
		zap.String("dir", cfg.dir),
		zap.Bool("in_memory", cfg.dir == ""),
		zap.Int("cache_mb", cfg.cacheSizeMB))
	return &Store{db: db, cache: cache, logger: cfg.logger}, nil
}

func blobKey(checksum entities.Checksum) []byte {
	return append(append([]byte(nil), codePrefix...), checksum[:]...)
}

// Put stores code and returns its checksum. Storing the same blob twice is
// a no-op.
func (s *Store) Put(code []byte) (entities.Checksum, error) {
	checksum := entities.Checksum(sha256.Sum256(code))
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(blobKey(checksum), code)
	})
	if err != nil {
		return checksum, fmt.Errorf("store code %s: %w", checksum, err)
	}
	s.remember(checksum, code)
	return checksum, nil
}

// Get implements ports.CodeStore.
func (s *Store) Get(checksum entities.Checksum) ([]byte, error) {
	if code, err := s.cache.Get(checksum.String()); err == nil {
		return code, nil
	}

	var code []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(blobKey(checksum))
		if err != nil {
			return err
		}
		code, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, &engerrors.CodeNotFoundError{Checksum: checksum.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("load code %s: %w", checksum, err)
	}
	s.remember(checksum, code)
	return code, nil
}

// remember caches code. Blobs the cache refuses, typically because they
// exceed a shard, are simply read from badger every time.
func (s *Store) remember(checksum entities.Checksum, code []byte) {
	if err := s.cache.Set(checksum.String(), code); err != nil {
		s.logger.Debug("code not cached", zap.Stringer("checksum", checksum), zap.Error(err))
	}
}

// Close implements ports.CodeStore.
func (s *Store) Close() error {
	return errors.Join(s.cache.Close(), s.db.Close())
}

// badgerLogger routes badger's logging into zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func (l badgerLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }

func (l badgerLogger) Infof(format string, args ...any) { l.s.Debugf(format, args...) }

func (l badgerLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
