package granary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// badgerPrefix namespaces attribute entries inside the database.
var badgerPrefix = []byte("granary/attr/")

// BadgerConfig holds configuration for a BadgerStore.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs. If nil, they are discarded.
	Logger *zap.Logger
}

// BadgerStore keeps every attribute as one value in an embedded BadgerDB.
// It suits datasets with many small attributes where one file each is wasteful.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent badger store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(name string) []byte {
	return append(append([]byte(nil), badgerPrefix...), name...)
}

// Exists implements Store.
func (s *BadgerStore) Exists(name string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Open implements Store.
func (s *BadgerStore) Open(name string) (io.ReadCloser, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(value)), nil
}

// Create implements Store. The value is committed in a single transaction on Close.
func (s *BadgerStore) Create(name string) (io.WriteCloser, error) {
	return &badgerWriter{db: s.db, key: badgerKey(name)}, nil
}

// Remove implements Store.
func (s *BadgerStore) Remove(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(name))
	})
}

// List implements Store.
func (s *BadgerStore) List() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = badgerPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(badgerPrefix); it.ValidForPrefix(badgerPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			names = append(names, string(key[len(badgerPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// Size implements Store.
func (s *BadgerStore) Size(name string) (int64, error) {
	var size int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name))
		if err != nil {
			return err
		}
		size = item.ValueSize()
		return nil
	})
	return size, err
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerWriter buffers an entry and writes it in one transaction on Close.
type badgerWriter struct {
	db      *badger.DB
	key     []byte
	buf     bytes.Buffer
	aborted bool
	closed  bool
}

func (w *badgerWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *badgerWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.aborted {
		return nil
	}
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(w.key, w.buf.Bytes())
	})
}

// Abort discards the buffered entry.
func (w *badgerWriter) Abort() {
	w.aborted = true
	w.closed = true
}
