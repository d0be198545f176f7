package store

import (
	"errors"
	"os"
	"syscall"

	"go.trai.ch/zerr"
)

// directoryLock is an advisory, process-scoped flock over a store directory, held for
// the lifetime of an open Store so concurrent processes can coordinate access without
// racing badger's own single-writer model. It has two modes: exclusive, held by the
// process currently reading and writing the store, and shared, held by read-only
// observers and by a process waiting out someone else's exclusive hold. Any number of
// shared holders may coexist; an exclusive holder excludes everyone else.
type directoryLock struct {
	f *os.File
}

// acquireExclusive takes a non-blocking exclusive flock on path, creating it if
// necessary. It returns ErrStoreLocked if another process already holds the lock,
// exclusive or shared.
func acquireExclusive(path string) (*directoryLock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, zerr.With(zerr.Wrap(ErrStoreLocked, "exclusive lock not available"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to lock store directory"), "path", path)
	}

	return &directoryLock{f: f}, nil
}

// acquireShared takes a blocking shared flock on path, creating it if necessary. It
// returns once no process holds the exclusive lock; any number of callers may hold a
// shared lock at once. Used both by read-only store access and by a process waiting for
// an exclusive holder to finish before re-checking whether the store is initialized.
func acquireShared(path string) (*directoryLock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH); err != nil {
		_ = f.Close()
		return nil, zerr.With(zerr.Wrap(err, "failed to lock store directory"), "path", path)
	}

	return &directoryLock{f: f}, nil
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // lock file, not sensitive
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open lock file"), "path", path)
	}
	return f, nil
}

// release drops the lock and closes the underlying file handle. Safe to call once.
func (l *directoryLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}
