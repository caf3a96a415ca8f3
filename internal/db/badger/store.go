// Package badger is an embedded db.Store for single-node deployments and tests.
// Keys live in three namespaces (plain values, set members, lists) so that the
// Redis data model maps onto one ordered key space.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	kvNS   = "k\x00"
	setNS  = "s\x00"
	listNS = "l\x00"

	// conflictRetries bounds optimistic-transaction retries on write conflicts.
	conflictRetries = 5
)

var errClosed = errors.New("badger: store is closed")

// Config selects the on-disk directory. An empty Path opens an in-memory store.
type Config struct {
	Path string
}

// Store implements db.Store on top of BadgerDB.
type Store struct {
	db *badger.DB
}

// zapAdapter routes badger's internal logging to zap.
type zapAdapter struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.log.Errorf(msg, args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.log.Warnf(msg, args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.log.Debugf(msg, args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.log.Debugf(msg, args...) }

// Open opens (creating if needed) a badger store.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{log: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// OpenInMemory opens a throwaway store (tests, local runs).
func OpenInMemory() (*Store, error) {
	return Open(Config{}, nil)
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errClosed
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns once the store is open; an embedded store has no warmup.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func kvKey(key string) []byte { return []byte(kvNS + key) }

func listKey(key string) []byte { return []byte(listNS + key) }

func setPrefix(key string) []byte { return []byte(setNS + key + "\x00") }

func setMemberKey(key, member string) []byte {
	return append(setPrefix(key), member...)
}
