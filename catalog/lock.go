package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"time"
)

// lockRetry is how often Lock polls a lock held by another process.
var lockRetry = 50 * time.Millisecond

// FileLock is an advisory lock guarding one catalog file.
type FileLock struct {
	f *os.File

	isLocked bool
}

// Lock takes an exclusive advisory lock on the catalog at path, waiting
// until it is released or ctx is done. The lock is taken on a sidecar
// "<path>.lock" file because persisting replaces the catalog file itself.
func Lock(ctx context.Context, path string) (*FileLock, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: path, Kind: ErrNotFound, Err: err}
		}
		return nil, &Error{Path: path, Kind: ErrIO, Err: err}
	}
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &Error{Path: path, Kind: ErrLock, Err: err}
	}

	l := &FileLock{f: f}
	for {
		ok, err := l.tryLock()
		if err != nil {
			f.Close()
			return nil, &Error{Path: path, Kind: ErrLock, Err: err}
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}
	runtime.SetFinalizer(l, (*FileLock).Unlock)
	return l, nil
}

// Unlock releases the lock. It is safe to call more than once.
func (l *FileLock) Unlock() error {
	runtime.SetFinalizer(l, nil)
	if l.f == nil {
		return nil
	}
	var err error
	if l.isLocked {
		err = l.unlock()
		l.isLocked = false
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
