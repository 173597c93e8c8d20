package storage

import (
	"encoding/binary"
	"sort"
	"sync"

	"maf/errs"
)

const (
	sectionResult byte = iota
	sectionBlob
)

// GetRunPrefix is the key prefix shared by every entry of one run section.
func GetRunPrefix(section byte, runID int64) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint64(buf[:8], uint64(runID))
	buf[8] = section
	return buf
}

func GetKey(section byte, runID int64, name string) []byte {
	// <8 bytes run ID> <1 byte section> <name>
	buf := make([]byte, 9+len(name))
	copy(buf, GetRunPrefix(section, runID))
	copy(buf[9:], name)
	return buf
}

func GetRunIDFromKey(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf[:8]))
}

func GetSectionFromKey(buf []byte) byte {
	return buf[8]
}

func GetNameFromKey(buf []byte) string {
	return string(buf[9:])
}

// Backend persists encoded result records keyed by (run ID, result name).
// Get of an absent key returns an error matching errs.ErrNotFound.
type Backend interface {
	Get(runID int64, name string) ([]byte, error)
	Put(runID int64, name string, buf []byte) error
	Delete(runID int64, name string) error
	// PutBatch writes every entry of one run atomically.
	PutBatch(runID int64, entries map[string][]byte) error
	// IterateNames visits the result names of a run in ascending order.
	IterateNames(runID int64, lambda func(name string) error) error
	Close() error
}

type InMemoryBackend struct {
	results      map[string][]byte
	resultsMutex sync.RWMutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		results: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) Get(runID int64, name string) ([]byte, error) {
	backend.resultsMutex.RLock()
	defer backend.resultsMutex.RUnlock()
	buf, ok := backend.results[string(GetKey(sectionResult, runID, name))]
	if !ok {
		return nil, errs.NotFound("InMemoryBackend", "result %q of run %d", name, runID)
	}
	return buf, nil
}

func (backend *InMemoryBackend) Put(runID int64, name string, buf []byte) error {
	backend.resultsMutex.Lock()
	defer backend.resultsMutex.Unlock()
	backend.results[string(GetKey(sectionResult, runID, name))] = buf
	return nil
}

func (backend *InMemoryBackend) Delete(runID int64, name string) error {
	backend.resultsMutex.Lock()
	defer backend.resultsMutex.Unlock()
	delete(backend.results, string(GetKey(sectionResult, runID, name)))
	return nil
}

func (backend *InMemoryBackend) PutBatch(runID int64, entries map[string][]byte) error {
	backend.resultsMutex.Lock()
	defer backend.resultsMutex.Unlock()
	for name, buf := range entries {
		backend.results[string(GetKey(sectionResult, runID, name))] = buf
	}
	return nil
}

func (backend *InMemoryBackend) IterateNames(runID int64, lambda func(string) error) error {
	backend.resultsMutex.RLock()
	names := make([]string, 0)
	for k := range backend.results {
		buf := []byte(k)
		if GetRunIDFromKey(buf) != runID || GetSectionFromKey(buf) != sectionResult {
			continue
		}
		names = append(names, GetNameFromKey(buf))
	}
	backend.resultsMutex.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		if err := lambda(name); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) Close() error {
	backend.resultsMutex.Lock()
	defer backend.resultsMutex.Unlock()
	backend.results = make(map[string][]byte)
	return nil
}
