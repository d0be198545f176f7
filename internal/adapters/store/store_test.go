package store_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/store"
	"go.trai.ch/bob/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	record := &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
	}
	require.NoError(t, s.Put(ctx, "build", record))

	got, err := s.Get(ctx, "build")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "build", got.TaskPath)
	assert.True(t, got.Successful)
}

func TestStore_GetMissingIsNilNotError(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	got, err := s.Get(ctx, "never-ran")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_IncompatibleVersionIsTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	record := &domain.TaskExecutionRecord{RecordVersion: domain.CurrentRecordVersion + 1, TaskPath: "build"}
	require.NoError(t, s.Put(ctx, "build", record))

	got, err := s.Get(ctx, "build")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_RoundTripsFileTreeSnapshots(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	snap := domain.NewNormalizedFileSnapshot("/abs/a.txt", "a.txt", domain.NewRegularFileSnapshot(42))
	tree := domain.NewFileTreeSnapshot(domain.Unordered, []domain.NormalizedFileSnapshot{snap})

	record := &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		OutputFiles:   map[string]*domain.FileTreeSnapshot{"main": tree},
	}
	require.NoError(t, s.Put(ctx, "build", record))

	got, err := s.Get(ctx, "build")
	require.NoError(t, err)
	require.NotNil(t, got.OutputFiles["main"])
	assert.Equal(t, tree.Hash(), got.OutputFiles["main"].Hash())
}

func TestStore_PutStoresTreesAsRefcountedBlobs(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	snap := domain.NewNormalizedFileSnapshot("/abs/a.txt", "a.txt", domain.NewRegularFileSnapshot(42))
	tree := domain.NewFileTreeSnapshot(domain.Unordered, []domain.NormalizedFileSnapshot{snap})

	record := &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		OutputFiles:   map[string]*domain.FileTreeSnapshot{"main": tree},
	}
	require.NoError(t, s.Put(ctx, "build", record))

	has, err := s.Blobs().Has(ctx, tree.Hash())
	require.NoError(t, err)
	assert.True(t, has, "the tree must be written into the blob keyspace, not inlined in the record")
}

func TestStore_PutReleasesBlobsOnlyHeldBySupersededRecord(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	oldTree := domain.NewFileTreeSnapshot(domain.Unordered, []domain.NormalizedFileSnapshot{
		domain.NewNormalizedFileSnapshot("/abs/old.txt", "old.txt", domain.NewRegularFileSnapshot(1)),
	})
	require.NoError(t, s.Put(ctx, "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		OutputFiles:   map[string]*domain.FileTreeSnapshot{"main": oldTree},
	}))

	newTree := domain.NewFileTreeSnapshot(domain.Unordered, []domain.NormalizedFileSnapshot{
		domain.NewNormalizedFileSnapshot("/abs/new.txt", "new.txt", domain.NewRegularFileSnapshot(2)),
	})
	require.NoError(t, s.Put(ctx, "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		OutputFiles:   map[string]*domain.FileTreeSnapshot{"main": newTree},
	}))

	oldHas, err := s.Blobs().Has(ctx, oldTree.Hash())
	require.NoError(t, err)
	assert.False(t, oldHas, "a blob only the superseded record referenced must be released")

	newHas, err := s.Blobs().Has(ctx, newTree.Hash())
	require.NoError(t, err)
	assert.True(t, newHas)
}

func TestStore_PutKeepsBlobSharedByOldAndNewRecord(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	sharedTree := domain.NewFileTreeSnapshot(domain.Unordered, []domain.NormalizedFileSnapshot{
		domain.NewNormalizedFileSnapshot("/abs/shared.txt", "shared.txt", domain.NewRegularFileSnapshot(1)),
	})
	require.NoError(t, s.Put(ctx, "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		InputFiles:    map[string]*domain.FileTreeSnapshot{"sources": sharedTree},
		OutputFiles:   map[string]*domain.FileTreeSnapshot{"main": sharedTree},
	}))
	require.NoError(t, s.Put(ctx, "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
		InputFiles:    map[string]*domain.FileTreeSnapshot{"sources": sharedTree},
	}))

	has, err := s.Blobs().Has(ctx, sharedTree.Hash())
	require.NoError(t, err)
	assert.True(t, has, "a blob still referenced by the new record must survive releasing the old one")
}

func TestStore_SecondOpenConvergesAfterFirstCloses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")

	first, err := store.Open(dir)
	require.NoError(t, err)

	type result struct {
		s   *store.Store
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := store.Open(dir)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("second Open returned before first closed: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.Close())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.NotNil(t, r.s)
		require.NoError(t, r.s.Close())
	case <-time.After(2 * time.Second):
		t.Fatal("second Open did not converge after the first store closed")
	}
}

func TestStore_OpenReadOnly_ReadsExistingData(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "history")

	writer, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, writer.Put(ctx, "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
		Successful:    true,
	}))
	require.NoError(t, writer.Close())

	reader, err := store.OpenReadOnly(dir)
	require.NoError(t, err)
	defer reader.Close() //nolint:errcheck

	got, err := reader.Get(ctx, "build")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "build", got.TaskPath)
}

func TestStore_OpenReadOnly_PutFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")

	writer, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := store.OpenReadOnly(dir)
	require.NoError(t, err)
	defer reader.Close() //nolint:errcheck

	err = reader.Put(context.Background(), "build", &domain.TaskExecutionRecord{
		RecordVersion: domain.CurrentRecordVersion,
		TaskPath:      "build",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreWrite)
}

func TestBlobs_PutHasGetRelease(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	blobs := s.Blobs()
	const hash = uint64(12345)

	has, err := blobs.Has(ctx, hash)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, blobs.Put(ctx, hash, strings.NewReader("hello world")))

	has, err = blobs.Has(ctx, hash)
	require.NoError(t, err)
	assert.True(t, has)

	r, err := blobs.Get(ctx, hash)
	require.NoError(t, err)
	buf := make([]byte, len("hello world"))
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf))
	require.NoError(t, r.Close())

	require.NoError(t, blobs.Release(ctx, hash))
	has, err = blobs.Has(ctx, hash)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBlobs_RefcountKeepsContentUntilLastRelease(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	blobs := s.Blobs()
	const hash = uint64(999)

	require.NoError(t, blobs.Put(ctx, hash, strings.NewReader("x")))
	require.NoError(t, blobs.Put(ctx, hash, strings.NewReader("x")))

	require.NoError(t, blobs.Release(ctx, hash))
	has, err := blobs.Has(ctx, hash)
	require.NoError(t, err)
	assert.True(t, has, "content survives while a second reference remains")

	require.NoError(t, blobs.Release(ctx, hash))
	has, err = blobs.Has(ctx, hash)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBlobs_GetMissingIsStoreReadError(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	_, err = s.Blobs().Get(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreRead)
}
