// Package store implements the persistent indexed store: a durable,
// process-shareable index from task identity to its most recent execution record, plus a
// content-addressed blob store for the file tree snapshots those records refer to, both
// backed by an embedded
// BadgerDB instance and guarded by a cross-process advisory lock.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.HistoryStore = (*Store)(nil)

// Store is the badger-backed implementation of ports.HistoryStore. It also owns the
// database's lifecycle: Blobs returns a companion ports.BlobStore sharing the same
// database and keyspace prefixing, since the two are always opened and closed together.
type Store struct {
	db       *badger.DB
	lock     *directoryLock
	readOnly bool
}

// maxConvergenceAttempts bounds how many times Open re-checks the exclusive lock after
// waiting on the shared lock, so a pathological case where the exclusive holder is
// replaced faster than we can re-acquire it fails loudly instead of looping forever.
const maxConvergenceAttempts = 3

// Open opens or creates a persistent store rooted at dir for read-write access. It
// acquires an exclusive cross-process lock over dir before touching badger. If another
// process already holds that lock, Open does not fail fast: it waits under a shared
// lock until that process releases it, then re-checks by retrying the exclusive lock.
// Because a shared lock only succeeds once no exclusive holder remains, the wait itself
// is the re-check — whoever held the store before is guaranteed to be finished with it
// by the time this returns, so badger.Open below always attaches to a store already in
// a consistent state rather than racing another initializer. This makes Open safe to
// call from any number of concurrent losers; each one converges the same way.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create store directory"), "path", dir)
	}

	lockPath := filepath.Join(dir, ".lock")

	lock, err := acquireExclusive(lockPath)
	for attempt := 0; errors.Is(err, ErrStoreLocked) && attempt < maxConvergenceAttempts; attempt++ {
		shared, sErr := acquireShared(lockPath)
		if sErr != nil {
			return nil, sErr
		}
		_ = shared.release()
		lock, err = acquireExclusive(lockPath)
	}
	if err != nil {
		return nil, err
	}

	db, err := openBadger(dir, false)
	if err != nil {
		_ = lock.release()
		return nil, err
	}

	return &Store{db: db, lock: lock}, nil
}

// OpenReadOnly opens an existing store rooted at dir for read access only. It acquires a
// shared lock, so any number of read-only openers may coexist with each other; it still
// waits behind a process currently holding the exclusive lock, since badger does not
// support reading a store mid-write. Put fails on a store opened this way.
func OpenReadOnly(dir string) (*Store, error) {
	lockPath := filepath.Join(dir, ".lock")

	lock, err := acquireShared(lockPath)
	if err != nil {
		return nil, err
	}

	db, err := openBadger(dir, true)
	if err != nil {
		_ = lock.release()
		return nil, err
	}

	return &Store{db: db, lock: lock, readOnly: true}, nil
}

func openBadger(dir string, readOnly bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithReadOnly(readOnly)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open history store"), "path", dir)
	}
	return db, nil
}

// OpenInMemory opens a store with no backing directory or lock, for tests and one-off
// builds that never share history with another process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open in-memory history store")
	}
	return &Store{db: db}, nil
}

// Blobs returns the content-addressed blob store sharing this store's database.
func (s *Store) Blobs() *Blobs {
	return &Blobs{db: s.db}
}

// Close flushes buffered writes, closes the database, and releases the cross-process
// lock, in that order, so the lock is only released once badger has fully quiesced.
func (s *Store) Close() error {
	closeErr := s.db.Close()
	lockErr := s.lock.release()
	if closeErr != nil {
		return zerr.Wrap(closeErr, "failed to close history store")
	}
	return lockErr
}

// Get retrieves the most recent execution record for taskKey, rehydrating its file trees
// from the blob keyspace by the hashes the stored record refers to. A record written by
// an incompatible schema version is treated as absent, per domain.ErrIncompatibleRecordVersion.
func (s *Store) Get(ctx context.Context, taskKey string) (*domain.TaskExecutionRecord, error) {
	wire, err := s.getWireRecord(taskKey)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreRead, err.Error()), "taskKey", taskKey)
	}
	if wire == nil || wire.RecordVersion != domain.CurrentRecordVersion {
		return nil, nil
	}

	record, err := fromWireRecord(ctx, s.Blobs(), wire)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreRead, err.Error()), "taskKey", taskKey)
	}
	return record, nil
}

// Put durably persists record as the new most recent execution for taskKey. Every file
// tree the record refers to is written into the blob keyspace and refcounted (§4.J);
// once the new record is committed, blobs the superseded record held are released, so a
// blob only outlives the last record referencing it. It fails with domain.ErrStoreWrite
// if the store was opened with OpenReadOnly.
func (s *Store) Put(ctx context.Context, taskKey string, record *domain.TaskExecutionRecord) error {
	if s.readOnly {
		err := zerr.Wrap(domain.ErrStoreWrite, "store is open read-only")
		return zerr.With(err, "taskKey", taskKey)
	}

	blobs := s.Blobs()

	superseded, err := s.getWireRecord(taskKey)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWrite, err.Error()), "taskKey", taskKey)
	}

	wire, err := toWireRecord(ctx, blobs, record)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWrite, err.Error()), "taskKey", taskKey)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWrite, err.Error()), "taskKey", taskKey)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(taskKey), data)
	})
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStoreWrite, err.Error()), "taskKey", taskKey)
	}

	if superseded != nil {
		for _, hash := range collectHashes(superseded) {
			if err := blobs.Release(ctx, hash); err != nil {
				return zerr.With(zerr.Wrap(domain.ErrStoreWrite, err.Error()), "taskKey", taskKey)
			}
		}
	}
	return nil
}

// getWireRecord reads the raw wire-shaped record for taskKey, or nil if none exists. It
// does not check RecordVersion, since Put needs the superseded record's blob hashes even
// when its schema is stale.
func (s *Store) getWireRecord(taskKey string) (*wireRecord, error) {
	var wire *wireRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(historyKey(taskKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec wireRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			wire = &rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return wire, nil
}
