package counter

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/specforge/specforge/internal/fs"
)

func Test_Next_Returns_One_On_First_Use(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter")
	alloc := New(fs.NewReal(), 0)

	id, err := alloc.Next(path)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(raw) != "1\n" {
		t.Fatalf("counter file = %q, want %q", raw, "1\n")
	}
}

func Test_Next_Increments_Without_Gaps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter")
	alloc := New(fs.NewReal(), 0)

	for want := uint64(1); want <= 5; want++ {
		id, err := alloc.Next(path)
		if err != nil {
			t.Fatalf("Next #%d: %v", want, err)
		}
		if id != want {
			t.Fatalf("id = %d, want %d", id, want)
		}
	}
}

func Test_Next_Treats_Garbage_Counter_File_As_Zero(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter")
	if err := os.WriteFile(path, []byte("not a number"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	alloc := New(fs.NewReal(), 0)

	id, err := alloc.Next(path)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
}

func Test_Next_Returns_LockTimeoutError_And_Does_Not_Mutate_When_Lock_Is_Held(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter")
	if err := os.WriteFile(path, []byte("7\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	locker := fs.NewLocker(fs.NewReal())

	held, err := locker.TryLock(path + ".lock")
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer held.Close()

	alloc := New(fs.NewReal(), 50*time.Millisecond)

	_, err = alloc.Next(path)

	var timeoutErr *LockTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Next: err=%v, want *LockTimeoutError", err)
	}
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("Next: err=%v, want errors.Is(fs.ErrWouldBlock)", err)
	}
	if timeoutErr.Path != path {
		t.Fatalf("LockTimeoutError.Path = %q, want %q", timeoutErr.Path, path)
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("ReadFile: %v", readErr)
	}
	if string(raw) != "7\n" {
		t.Fatalf("counter mutated to %q despite lock timeout", raw)
	}
}

func Test_Next_Produces_Distinct_Gapless_Ids_Under_Concurrency(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter")

	const workers = 32

	ids := make([]uint64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			// Each worker gets its own allocator, like independent
			// process invocations sharing one counter file.
			alloc := New(fs.NewReal(), 10*time.Second)

			id, err := alloc.Next(path)
			if err != nil {
				t.Errorf("Next: %v", err)

				return
			}

			ids[i] = id
		}()
	}

	wg.Wait()

	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("ids = %v: position %d is %d, want %d (duplicate or gap)", ids, i, id, i+1)
		}
	}
}
