package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrDirSync indicates the parent directory could not be synced after the
// rename. The new file is in place but its directory entry may not be
// durable yet. Detect with errors.Is(err, ErrDirSync).
var ErrDirSync = errors.New("dir sync")

// AtomicWriter replaces files atomically and durably.
//
// Write creates a uniquely named temp file in the target's directory, writes
// and fsyncs the data, renames the temp file over the target, then fsyncs the
// parent directory. A crash at any point leaves the target either at its old
// content or its new content.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter backed by the given filesystem.
// Panics if filesys is nil.
func NewAtomicWriter(filesys FS) *AtomicWriter {
	if filesys == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: filesys}
}

// Write atomically replaces the file at path with data.
//
// If the final directory sync fails, the returned error satisfies
// errors.Is(err, ErrDirSync); the rename itself has already happened.
func (w *AtomicWriter) Write(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return errors.New("path is empty")
	}

	if perm == 0 {
		return errors.New("perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == "." || base == string(os.PathSeparator) {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)

	tmpFile, tmpPath, err := w.createTemp(dir, base, perm)
	if err != nil {
		return err
	}

	err = writeAndSync(tmpFile, tmpPath, data)
	if err != nil {
		return errors.Join(err, w.discardTemp(tmpFile, tmpPath))
	}

	closeErr := tmpFile.Close()
	if closeErr != nil {
		return errors.Join(
			fmt.Errorf("close temp file %q: %w", tmpPath, closeErr),
			w.removeTemp(tmpPath),
		)
	}

	renameErr := w.fs.Rename(tmpPath, path)
	if renameErr != nil {
		return errors.Join(
			fmt.Errorf("rename %q over %q: %w", tmpPath, path, renameErr),
			w.removeTemp(tmpPath),
		)
	}

	return w.syncDir(dir)
}

var tempSeq atomic.Uint64

const tempMaxAttempts = 10000

// createTemp opens a fresh temp file next to the target so the final rename
// stays within one filesystem.
func (w *AtomicWriter) createTemp(dir, base string, perm os.FileMode) (File, string, error) {
	for i := 0; i < tempMaxAttempts; i++ {
		seq := tempSeq.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, "", fmt.Errorf("create temp file: %w", err)
	}

	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func (w *AtomicWriter) discardTemp(file File, path string) error {
	closeErr := file.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close temp file %q: %w", path, closeErr)
	}

	return errors.Join(closeErr, w.removeTemp(path))
}

func (w *AtomicWriter) removeTemp(path string) error {
	err := w.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}

	return nil
}

func (w *AtomicWriter) syncDir(dir string) error {
	dirFile, err := w.fs.Open(dir)
	if err != nil {
		return errors.Join(ErrDirSync, fmt.Errorf("open dir %q: %w", dir, err))
	}

	syncErr := dirFile.Sync()
	closeErr := dirFile.Close()

	if syncErr != nil {
		syncErr = errors.Join(ErrDirSync, fmt.Errorf("sync dir %q: %w", dir, syncErr))
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("close dir %q: %w", dir, closeErr)
	}

	return errors.Join(syncErr, closeErr)
}

func writeAndSync(file File, path string, data []byte) error {
	_, err := file.Write(data)
	if err != nil {
		return fmt.Errorf("write temp file %q: %w", path, err)
	}

	err = file.Sync()
	if err != nil {
		return fmt.Errorf("sync temp file %q: %w", path, err)
	}

	return nil
}
