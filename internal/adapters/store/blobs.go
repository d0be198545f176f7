package store

import (
	"bytes"
	"context"
	"errors"
	"io"

	badger "github.com/dgraph-io/badger/v4"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BlobStore = (*Blobs)(nil)

// Blobs is the content-addressed side of the persistent indexed store: the JSON-serialized
// file tree snapshots that execution records refer to, indexed by tree hash and
// refcounted so an identical tree recorded by different tasks, or different executions
// of the same task, is stored once.
type Blobs struct {
	db *badger.DB
}

// Has reports whether content with the given hash is already stored.
func (b *Blobs) Has(_ context.Context, hash uint64) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blobKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, zerr.Wrap(err, "failed to query blob store")
	}
	return found, nil
}

// Put stores content under hash, incrementing its reference count if already present.
// The content bytes are only written the first time a given hash is seen; every
// subsequent Put for the same hash is a pure refcount increment, matching the
// content-addressed store's guarantee that identical content is stored once.
func (b *Blobs) Put(_ context.Context, hash uint64, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return zerr.Wrap(err, "failed to read blob content")
	}

	return b.db.Update(func(txn *badger.Txn) error {
		count := uint64(0)
		existing, err := txn.Get(refcountKey(hash))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if err := txn.Set(blobKey(hash), data); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := existing.Value(func(val []byte) error {
				count = decodeRefcount(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return txn.Set(refcountKey(hash), encodeRefcount(count+1))
	})
}

// Get returns a reader over the stored content for hash.
func (b *Blobs) Get(_ context.Context, hash uint64) (io.ReadCloser, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreRead, "blob not found"), "hash", hash)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStoreRead, err.Error()), "hash", hash)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Release decrements the reference count for hash, deleting the underlying content once
// no execution record references it anymore.
func (b *Blobs) Release(_ context.Context, hash uint64) error {
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(refcountKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		count := uint64(0)
		if err := item.Value(func(val []byte) error {
			count = decodeRefcount(val)
			return nil
		}); err != nil {
			return err
		}

		if count <= 1 {
			if err := txn.Delete(refcountKey(hash)); err != nil {
				return err
			}
			return txn.Delete(blobKey(hash))
		}
		return txn.Set(refcountKey(hash), encodeRefcount(count-1))
	})
}
