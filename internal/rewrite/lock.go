package rewrite

import (
	"fmt"
	"sync"

	"github.com/gofrs/flock"
)

// Locker grants exclusive access to a document path
type Locker interface {
	// TryLock acquires the lock without waiting. It returns ErrLocked when
	// the path is already held.
	TryLock(path string) (unlock func() error, err error)
}

// FileLocker takes an advisory flock on the document itself, so no
// separate lock file is created. Two locks on the same path conflict even
// within one process.
type FileLocker struct{}

// TryLock implements Locker
func (FileLocker) TryLock(path string) (func() error, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}

// MemLocker is an in-process Locker for stores backed by an in-memory filesystem
type MemLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemLocker creates an empty MemLocker
func NewMemLocker() *MemLocker {
	return &MemLocker{held: make(map[string]bool)}
}

// TryLock implements Locker
func (l *MemLocker) TryLock(path string) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[path] {
		return nil, ErrLocked
	}
	l.held[path] = true

	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, path)
		return nil
	}, nil
}
