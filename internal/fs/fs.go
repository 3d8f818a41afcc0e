// Package fs is the filesystem seam for specforge.
//
// It provides:
//   - [FS]/[File]: small interfaces over the os package
//   - [Real]: the production implementation
//   - [Injected]: a test implementation that fails selected operations
//   - [AtomicWriter]: durable write-temp-then-rename file replacement
//   - [Locker]: advisory flock(2) locking with bounded acquisition
//
// Every write that is a durability boundary (the feature counter, checkpoint
// content and sidecars, the live spec document) goes through
// [FS.WriteFileAtomic]. Nothing in this module ever replaces a file with
// delete-then-rename; the target is either its old content or its new
// content, never absent and never truncated.
package fs

import (
	"io"
	"os"
)

// File is an open file. Satisfied by [os.File].
type File interface {
	io.ReadWriteCloser

	// Fd returns the file descriptor, used for flock(2).
	Fd() uintptr

	// Stat returns the file's [os.FileInfo].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to stable storage.
	Sync() error
}

// FS defines the filesystem operations specforge needs. All methods mirror
// their os package equivalents so implementations can be passthroughs.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with explicit flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic replaces the file at path with data using a temp file
	// in the same directory followed by an atomic rename. On error the
	// target is untouched.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory, entries sorted by name. See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and any missing parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether path exists. Returns (false, nil) for a
	// missing path and (false, err) only for other stat failures.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename atomically moves oldpath to newpath. See [os.Rename].
	Rename(oldpath, newpath string) error
}
