package rewrite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const defaultFileMode os.FileMode = 0o644

// Store loads and persists documents on a filesystem
type Store struct {
	fs     afero.Fs
	locker Locker
}

// NewStore creates a Store over fs guarded by locker
func NewStore(fs afero.Fs, locker Locker) *Store {
	return &Store{fs: fs, locker: locker}
}

// NewOSStore creates a Store over the real filesystem using flock
func NewOSStore() *Store {
	return NewStore(afero.NewOsFs(), FileLocker{})
}

// Fs returns the underlying filesystem
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Load reads path into a Document
func (s *Store) Load(path string) (*Document, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return NewDocument(path, data), nil
}

// Persist writes doc.Text to target by writing a temporary file in the same
// directory and renaming it over target, so readers see either the old or
// the new content. The mode of an existing target is kept.
func (s *Store) Persist(doc *Document, target string) error {
	dir := filepath.Dir(target)
	mode := defaultFileMode
	if info, err := s.fs.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "write", Path: target, Err: err}
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return &IOError{Op: "write", Path: target, Err: err}
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return &IOError{Op: "write", Path: target, Err: cause}
	}

	if _, err := tmp.Write([]byte(doc.Text)); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := s.fs.Chmod(tmpName, mode); err != nil {
		_ = s.fs.Remove(tmpName)
		return &IOError{Op: "write", Path: target, Err: err}
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		_ = s.fs.Remove(tmpName)
		return &IOError{Op: "write", Path: target, Err: err}
	}
	return nil
}

// Outcome describes one completed rewrite
type Outcome struct {
	Path    string
	Target  string
	Changed bool
	Written bool
}

// Rewrite locks path, runs p over its content and persists the result to
// target (path itself when target is empty). Nothing is written when a rule
// fails, and an unchanged document is not rewritten.
func (s *Store) Rewrite(path, target string, p *Pipeline) (*Outcome, error) {
	if target == "" {
		target = path
	}

	// flock creates missing files, so check before taking the lock
	if _, err := s.fs.Stat(path); err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	unlock, err := s.locker.TryLock(path)
	if err != nil {
		return nil, &IOError{Op: "lock", Path: path, Err: err}
	}
	defer func() { _ = unlock() }()

	doc, err := s.Load(path)
	if err != nil {
		return nil, err
	}

	if _, err := p.Apply(doc); err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", path, err)
	}

	out := &Outcome{Path: path, Target: target, Changed: doc.Changed()}
	if !s.needsWrite(doc, target) {
		return out, nil
	}

	if err := s.Persist(doc, target); err != nil {
		return nil, err
	}
	out.Written = true
	return out, nil
}

func (s *Store) needsWrite(doc *Document, target string) bool {
	if target == doc.Path {
		return doc.Changed()
	}
	existing, err := afero.ReadFile(s.fs, target)
	if err != nil {
		return true
	}
	return !bytes.Equal(existing, []byte(doc.Text))
}

// Preview is what Rewrite would write, computed without locking or writing
type Preview struct {
	Path   string
	Target string
	Before string
	After  string
}

// Changed reports whether the target would be written
func (p *Preview) Changed() bool {
	return p.Before != p.After
}

// Preview runs p over path and returns the current and the rewritten
// content of target (path itself when target is empty). A target that does
// not exist yet previews as empty.
func (s *Store) Preview(path, target string, p *Pipeline) (*Preview, error) {
	if target == "" {
		target = path
	}

	doc, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := p.Apply(doc); err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", path, err)
	}

	before := string(doc.Original)
	if target != path {
		before = ""
		if existing, err := afero.ReadFile(s.fs, target); err == nil {
			before = string(existing)
		}
	}
	return &Preview{Path: path, Target: target, Before: before, After: doc.Text}, nil
}
