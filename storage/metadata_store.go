package storage

import (
	"sync"

	"maf/errs"
)

// MetadataStore keeps the encoded results database header and one encoded
// record per run.
type MetadataStore interface {
	PutDB([]byte) error
	GetDB() ([]byte, error)

	PutRun(int64, []byte) error
	GetRun(int64) ([]byte, error)
	// PutDBAndRun writes both records atomically.
	PutDBAndRun(dbBuf []byte, runID int64, runBuf []byte) error
}

type SimpleMetadataStore struct {
	mtx  sync.RWMutex
	db   []byte
	runs map[int64][]byte
}

func NewSimpleMetadataStore() *SimpleMetadataStore {
	return &SimpleMetadataStore{
		db:   nil,
		runs: make(map[int64][]byte),
	}
}

func (smm *SimpleMetadataStore) PutDB(db []byte) error {
	smm.mtx.Lock()
	defer smm.mtx.Unlock()
	smm.db = db
	return nil
}

func (smm *SimpleMetadataStore) GetDB() ([]byte, error) {
	smm.mtx.RLock()
	defer smm.mtx.RUnlock()
	if smm.db == nil {
		return nil, errs.NotFound("SimpleMetadataStore", "DB not found")
	}
	return smm.db, nil
}

func (smm *SimpleMetadataStore) PutRun(id int64, buf []byte) error {
	smm.mtx.Lock()
	defer smm.mtx.Unlock()
	smm.runs[id] = buf
	return nil
}

func (smm *SimpleMetadataStore) GetRun(id int64) ([]byte, error) {
	smm.mtx.RLock()
	defer smm.mtx.RUnlock()
	buf, ok := smm.runs[id]
	if !ok {
		return nil, errs.NotFound("SimpleMetadataStore", "run %d not found", id)
	}
	return buf, nil
}

func (smm *SimpleMetadataStore) PutDBAndRun(dbBuf []byte, runID int64, runBuf []byte) error {
	smm.mtx.Lock()
	defer smm.mtx.Unlock()
	smm.db = dbBuf
	smm.runs[runID] = runBuf
	return nil
}
