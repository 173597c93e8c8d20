package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/errs"
	"maf/storage"
	"maf/utils"
)

// Run groups the results of one analysis of one survey simulation.
type Run struct {
	ID      int64
	Name    string
	Comment string
	Created time.Time
	Results []string
}

// DB persists metric results per run. Result arrays live in the backend under
// their output identifier; the run list and run records live in the metadata
// store.
type DB struct {
	backend  storage.Backend
	mds      storage.MetadataStore
	runs     map[int64]*Run
	names    map[string]int64
	nextID   int64
	compress bool
	logger   log.Logger
	mu       sync.Mutex
}

// New creates an empty results database. A nil cfg.Badger keeps everything in
// memory.
func New(cfg *StoreConfig, logger log.Logger) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = cfg.Logger(logger)
	if cfg.Badger == nil {
		return NewWithBackend(storage.NewInMemoryBackend(), storage.NewSimpleMetadataStore(), cfg.Compress, logger), nil
	}
	badgerDB, err := storage.OpenBadger(*cfg.Badger, logger)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(storage.NewBadgerBackend(badgerDB), storage.NewBadgerMetadataStore(badgerDB),
		cfg.Compress, logger), nil
}

func NewWithBackend(backend storage.Backend, mds storage.MetadataStore, compress bool, logger log.Logger) *DB {
	return &DB{
		backend:  backend,
		mds:      mds,
		runs:     make(map[int64]*Run),
		names:    make(map[string]int64),
		compress: compress,
		logger:   utils.OrNop(logger),
	}
}

// Open creates the database and loads any runs already persisted.
func Open(cfg *StoreConfig, logger log.Logger) (*DB, error) {
	db, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.ReadDB(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) NewRun(name, comment string) (*Run, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if name == "" {
		return nil, errs.Configuration("DB", "runs need a non-empty name")
	}
	if _, ok := db.names[name]; ok {
		return nil, errs.NamingConflict("DB", "run %q already exists", name)
	}
	run := &Run{
		ID:      db.nextID,
		Name:    name,
		Comment: comment,
		Created: time.Now().UTC(),
		Results: make([]string, 0),
	}
	db.nextID++
	db.runs[run.ID] = run
	db.names[name] = run.ID

	if err := db.writeDBAndRun(run); err != nil {
		delete(db.runs, run.ID)
		delete(db.names, name)
		return nil, err
	}
	level.Info(db.logger).Log("msg", "created run", "run", name, "id", run.ID)
	return run, nil
}

func (db *DB) GetRun(runID int64) (*Run, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	run, ok := db.runs[runID]
	if !ok {
		return nil, errs.NotFound("DB", "run %d not found", runID)
	}
	return run, nil
}

func (db *DB) FindRun(name string) (*Run, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	id, ok := db.names[name]
	if !ok {
		return nil, errs.NotFound("DB", "run %q not found", name)
	}
	return db.runs[id], nil
}

// Runs returns every run ordered by ID.
func (db *DB) Runs() []*Run {
	db.mu.Lock()
	defer db.mu.Unlock()
	runs := make([]*Run, 0, len(db.runs))
	for _, run := range db.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs
}

// WriteResults persists the scalar results of a run. Composite raw results
// are skipped; their reductions are scalar results of their own. Writing an
// identifier again in a later call replaces the stored array; two results
// with one identifier in the same call are a naming conflict.
func (db *DB) WriteResults(runID int64, results ...*Result) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	run, ok := db.runs[runID]
	if !ok {
		return errs.NotFound("DB", "run %d not found", runID)
	}

	entries := make(map[string][]byte, len(results))
	for _, result := range results {
		if result.IsComposite() {
			level.Debug(db.logger).Log("msg", "skipping composite result", "result", result.ID)
			continue
		}
		if _, dup := entries[result.ID]; dup {
			return errs.NamingConflict("DB", "result %q given twice for run %s", result.ID, run.Name)
		}
		buf, err := ResultToBytes(result, db.compress)
		if err != nil {
			return fmt.Errorf("failed to encode result %q: %w", result.ID, err)
		}
		entries[result.ID] = buf
	}
	if len(entries) == 0 {
		return nil
	}
	if err := db.backend.PutBatch(runID, entries); err != nil {
		return err
	}

	known := make(map[string]bool, len(run.Results))
	for _, id := range run.Results {
		known[id] = true
	}
	for id := range entries {
		if !known[id] {
			run.Results = append(run.Results, id)
		}
	}
	sort.Strings(run.Results)
	if err := db.writeDBAndRun(run); err != nil {
		return err
	}
	level.Debug(db.logger).Log("msg", "wrote results", "run", run.Name, "count", len(entries))
	return nil
}

func (db *DB) ReadResult(runID int64, id string) (*Result, error) {
	buf, err := db.backend.Get(runID, id)
	if err != nil {
		return nil, err
	}
	return BytesToResult(buf)
}

// ListResults returns the identifiers stored for a run, sorted.
func (db *DB) ListResults(runID int64) ([]string, error) {
	ids := make([]string, 0)
	err := db.backend.IterateNames(runID, func(name string) error {
		ids = append(ids, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (db *DB) Close() error {
	return db.backend.Close()
}

func (db *DB) writeDBAndRun(run *Run) error {
	dbBuf, err := db.Serialize()
	if err != nil {
		return err
	}
	runBuf, err := encode(&runRecord{
		ID:      run.ID,
		Name:    run.Name,
		Comment: run.Comment,
		Created: run.Created.UnixNano(),
		Results: run.Results,
	}, db.compress)
	if err != nil {
		return err
	}
	return db.mds.PutDBAndRun(dbBuf, run.ID, runBuf)
}

// ReadDB loads the run list and every run record. A store without a database
// header is a new database.
func (db *DB) ReadDB() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	buf, err := db.mds.GetDB()
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var record dbRecord
	if err := decode(buf, &record); err != nil {
		return fmt.Errorf("failed to decode database header: %w", err)
	}

	for _, runID := range record.RunIDs {
		runBuf, err := db.mds.GetRun(runID)
		if err != nil {
			return err
		}
		var rr runRecord
		if err := decode(runBuf, &rr); err != nil {
			return fmt.Errorf("failed to decode run %d: %w", runID, err)
		}
		if rr.Results == nil {
			rr.Results = make([]string, 0)
		}
		run := &Run{
			ID:      rr.ID,
			Name:    rr.Name,
			Comment: rr.Comment,
			Created: time.Unix(0, rr.Created).UTC(),
			Results: rr.Results,
		}
		db.runs[run.ID] = run
		db.names[run.Name] = run.ID
	}
	db.nextID = record.NextID
	level.Info(db.logger).Log("msg", "loaded results database", "runs", len(db.runs))
	return nil
}

func (db *DB) Serialize() ([]byte, error) {
	ids := make([]int64, 0, len(db.runs))
	for id := range db.runs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return encode(&dbRecord{RunIDs: ids, NextID: db.nextID}, db.compress)
}
