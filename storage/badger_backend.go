package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-kit/log"

	"maf/errs"
)

type BadgerBackendConfig struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

func TestBadgerBackendConfig() BadgerBackendConfig {
	return BadgerBackendConfig{InMemory: true}
}

// OpenBadger opens the database shared by the result backend and the
// metadata store.
func OpenBadger(cfg BadgerBackendConfig, logger log.Logger) (*badger.DB, error) {
	path := cfg.Path
	if cfg.InMemory {
		path = ""
	} else if path == "" {
		return nil, errs.Configuration("badger", "a path is required unless in_memory is set")
	}
	option := badger.DefaultOptions(path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(NewBadgerLogger(logger))
	db, err := badger.Open(option)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return db, nil
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func (backend *BadgerBackend) txnGet(key []byte) ([]byte, error) {
	var buf []byte
	err := backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.Wrap(errs.ErrNotFound, "BadgerBackend", err)
	}
	return buf, err
}

func (backend *BadgerBackend) txnPut(key, buf []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
}

func (backend *BadgerBackend) txnDelete(key []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (backend *BadgerBackend) Get(runID int64, name string) ([]byte, error) {
	return backend.txnGet(GetKey(sectionResult, runID, name))
}

func (backend *BadgerBackend) Put(runID int64, name string, buf []byte) error {
	return backend.txnPut(GetKey(sectionResult, runID, name), buf)
}

func (backend *BadgerBackend) Delete(runID int64, name string) error {
	return backend.txnDelete(GetKey(sectionResult, runID, name))
}

func (backend *BadgerBackend) PutBatch(runID int64, entries map[string][]byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		for name, buf := range entries {
			if err := txn.Set(GetKey(sectionResult, runID, name), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (backend *BadgerBackend) IterateNames(runID int64, lambda func(string) error) error {
	prefix := GetRunPrefix(sectionResult, runID)
	iterOpts := badger.IteratorOptions{Prefix: prefix}
	return backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := lambda(GetNameFromKey(iter.Item().Key())); err != nil {
				return err
			}
		}
		return nil
	})
}
