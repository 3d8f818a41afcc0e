package fs

import (
	"os"
)

// Injected wraps an [FS] and fails selected operations on demand.
//
// Each hook receives the path of the operation; returning a non-nil error
// fails the call without touching the underlying filesystem. A nil hook (or
// a hook returning nil) passes the call through. This is how tests simulate
// crashes and I/O failures at exact points: fail the rename of an atomic
// write, fail the first write to a live document, and so on.
type Injected struct {
	Under FS

	OpenErr     func(path string) error
	OpenFileErr func(path string) error
	RenameErr   func(oldpath, newpath string) error
	RemoveErr   func(path string) error
	WriteErr    func(path string) error
}

// NewInjected wraps under with no failures configured.
func NewInjected(under FS) *Injected {
	return &Injected{Under: under}
}

func (i *Injected) Open(path string) (File, error) {
	if i.OpenErr != nil {
		if err := i.OpenErr(path); err != nil {
			return nil, err
		}
	}

	return i.Under.Open(path)
}

func (i *Injected) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if i.OpenFileErr != nil {
		if err := i.OpenFileErr(path); err != nil {
			return nil, err
		}
	}

	return i.Under.OpenFile(path, flag, perm)
}

func (i *Injected) ReadFile(path string) ([]byte, error) {
	return i.Under.ReadFile(path)
}

// WriteFileAtomic routes through [AtomicWriter] over the injected filesystem
// itself, so hooks on OpenFile/Rename/Remove fire inside the atomic write
// sequence.
func (i *Injected) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if i.WriteErr != nil {
		if err := i.WriteErr(path); err != nil {
			return err
		}
	}

	return NewAtomicWriter(i).Write(path, data, perm)
}

func (i *Injected) ReadDir(path string) ([]os.DirEntry, error) {
	return i.Under.ReadDir(path)
}

func (i *Injected) MkdirAll(path string, perm os.FileMode) error {
	return i.Under.MkdirAll(path, perm)
}

func (i *Injected) Stat(path string) (os.FileInfo, error) {
	return i.Under.Stat(path)
}

func (i *Injected) Exists(path string) (bool, error) {
	return i.Under.Exists(path)
}

func (i *Injected) Remove(path string) error {
	if i.RemoveErr != nil {
		if err := i.RemoveErr(path); err != nil {
			return err
		}
	}

	return i.Under.Remove(path)
}

func (i *Injected) Rename(oldpath, newpath string) error {
	if i.RenameErr != nil {
		if err := i.RenameErr(oldpath, newpath); err != nil {
			return err
		}
	}

	return i.Under.Rename(oldpath, newpath)
}
