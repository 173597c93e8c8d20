package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"maf/errs"
)

const DbKey = "DBKEY"

const runRecord = "run"

type BadgerMetadataStore struct {
	db *badger.DB
}

func NewBadgerMetadataStore(db *badger.DB) *BadgerMetadataStore {
	return &BadgerMetadataStore{db: db}
}

func (bms *BadgerMetadataStore) get(key []byte) ([]byte, error) {
	var buf []byte
	err := bms.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.Wrap(errs.ErrNotFound, "BadgerMetadataStore", err)
	}
	return buf, err
}

func (bms *BadgerMetadataStore) put(key, buf []byte) error {
	return bms.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
}

func (bms *BadgerMetadataStore) PutDB(dbBuf []byte) error {
	return bms.put([]byte(DbKey), dbBuf)
}

func (bms *BadgerMetadataStore) GetDB() ([]byte, error) {
	return bms.get([]byte(DbKey))
}

func (bms *BadgerMetadataStore) PutRun(runID int64, buf []byte) error {
	return bms.put(GetKey(sectionBlob, runID, runRecord), buf)
}

func (bms *BadgerMetadataStore) GetRun(runID int64) ([]byte, error) {
	return bms.get(GetKey(sectionBlob, runID, runRecord))
}

func (bms *BadgerMetadataStore) PutDBAndRun(dbBuf []byte, runID int64, runBuf []byte) error {
	return bms.db.Update(func(txn *badger.Txn) error {
		err := txn.Set([]byte(DbKey), dbBuf)
		if err != nil {
			return err
		}
		return txn.Set(GetKey(sectionBlob, runID, runRecord), runBuf)
	})
}
