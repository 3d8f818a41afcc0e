// Package counter allocates globally-unique, monotonically increasing
// feature identifiers from a shared counter file.
//
// The counter file holds a single decimal integer. Allocation is a
// read-increment-write under an exclusive advisory flock on a sibling
// ".lock" file, so concurrent invocations (including separate processes)
// serialize: each successful allocation returns a value strictly greater
// than every previously returned value, with no gaps and no duplicates.
// The write-back is atomic (temp file then rename); a crash mid-allocation
// leaves the counter at its old value.
package counter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/specforge/specforge/internal/fs"
)

// DefaultLockTimeout bounds how long an allocation waits for the lock.
const DefaultLockTimeout = 5 * time.Second

const counterFilePerm = 0o644

// LockTimeoutError is returned when the counter lock could not be acquired
// within the allocator's timeout. The counter is not mutated. Retryable.
type LockTimeoutError struct {
	Path    string        // counter file whose lock was contended
	Timeout time.Duration // how long the allocator waited
	Err     error         // underlying lock error
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("counter %s: lock not acquired within %s: %v", e.Path, e.Timeout, e.Err)
}

func (e *LockTimeoutError) Unwrap() error {
	return e.Err
}

// Allocator hands out feature ids from counter files.
type Allocator struct {
	fs      fs.FS
	locker  *fs.Locker
	timeout time.Duration
}

// New creates an Allocator. A timeout <= 0 uses [DefaultLockTimeout].
func New(filesys fs.FS, timeout time.Duration) *Allocator {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	return &Allocator{
		fs:      filesys,
		locker:  fs.NewLocker(filesys),
		timeout: timeout,
	}
}

// Next allocates the next feature id from the counter at counterPath.
//
// A missing or unparsable counter file counts as 0, so the first allocation
// returns 1. On lock contention past the timeout it returns a
// *[LockTimeoutError] (which also satisfies errors.Is with
// [fs.ErrWouldBlock]) and performs no mutation.
func (a *Allocator) Next(counterPath string) (uint64, error) {
	lock, err := a.locker.LockWithTimeout(counterPath+".lock", a.timeout)
	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return 0, &LockTimeoutError{Path: counterPath, Timeout: a.timeout, Err: err}
		}

		return 0, fmt.Errorf("locking counter %s: %w", counterPath, err)
	}

	defer func() { _ = lock.Close() }()

	current, err := a.read(counterPath)
	if err != nil {
		return 0, err
	}

	next := current + 1

	data := []byte(strconv.FormatUint(next, 10) + "\n")

	err = a.fs.WriteFileAtomic(counterPath, data, counterFilePerm)
	if err != nil {
		return 0, fmt.Errorf("writing counter %s: %w", counterPath, err)
	}

	return next, nil
}

// read returns the current counter value. Missing file or garbage content
// degrade to 0 rather than failing the allocation.
func (a *Allocator) read(counterPath string) (uint64, error) {
	exists, err := a.fs.Exists(counterPath)
	if err != nil {
		return 0, fmt.Errorf("checking counter %s: %w", counterPath, err)
	}

	if !exists {
		return 0, nil
	}

	raw, err := a.fs.ReadFile(counterPath)
	if err != nil {
		return 0, fmt.Errorf("reading counter %s: %w", counterPath, err)
	}

	value, parseErr := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if parseErr != nil {
		return 0, nil
	}

	return value, nil
}
