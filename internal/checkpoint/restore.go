package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specforge/specforge/internal/document"
)

// Restore overwrites the live document at livePath with the checkpoint's
// content, returning the id of the safety checkpoint taken first.
//
// Order matters: integrity is verified before anything is touched (a
// corrupted checkpoint fails closed), then the current live document is
// checkpointed so the restore itself is reversible, and only then is the
// live document atomically replaced.
func (s *Store) Restore(dir, id, livePath string) (string, error) {
	content, _, err := s.Load(dir, id)
	if err != nil {
		return "", err
	}

	safetyID, err := s.safetyCheckpoint(dir, id, livePath)
	if err != nil {
		return "", err
	}

	err = s.fs.WriteFileAtomic(livePath, content, checkpointFilePerm)
	if err != nil {
		return safetyID, fmt.Errorf("overwriting live document %s: %w", livePath, err)
	}

	return safetyID, nil
}

// safetyCheckpoint snapshots the live document before a restore. A missing
// live document (nothing to protect) yields no checkpoint and no error.
func (s *Store) safetyCheckpoint(dir, restoringID, livePath string) (string, error) {
	liveContent, err := s.fs.ReadFile(livePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("reading live document %s: %w", livePath, err)
	}

	// Warnings are deliberately ignored: a live document with malformed
	// metadata still deserves its safety net.
	liveDoc, _ := document.Parse(liveContent)

	safetyID, err := s.Create(dir, liveContent, liveDoc.Meta, "auto: before restore of "+restoringID)
	if err != nil {
		return "", fmt.Errorf("creating safety checkpoint: %w", err)
	}

	return safetyID, nil
}

// Delete removes one checkpoint (content and sidecar) by id.
func (s *Store) Delete(dir, id string) error {
	sidecarPath := filepath.Join(dir, id+sidecarExt)

	exists, err := s.fs.Exists(sidecarPath)
	if err != nil {
		return fmt.Errorf("checking checkpoint %s: %w", id, err)
	}

	if !exists {
		return &NotFoundError{ID: id}
	}

	err = s.fs.Remove(sidecarPath)
	if err != nil {
		return fmt.Errorf("removing checkpoint sidecar %s: %w", sidecarPath, err)
	}

	contentPath := filepath.Join(dir, id+contentExt)

	err = s.fs.Remove(contentPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint content %s: %w", contentPath, err)
	}

	return nil
}

// Cleanup deletes checkpoints older than the retention window. The newest
// checkpoint is never deleted regardless of age - it is the last safety
// net. Returns the number of checkpoints deleted.
func (s *Store) Cleanup(dir string, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("retention days must be >= 0, got %d", olderThanDays)
	}

	infos, err := s.List(dir)
	if err != nil {
		return 0, err
	}

	if len(infos) <= 1 {
		return 0, nil
	}

	newest := 0
	for i, info := range infos {
		if info.Created.After(infos[newest].Created) || (info.Created.Equal(infos[newest].Created) && i > newest) {
			newest = i
		}
	}

	cutoff := s.now().UTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)

	deleted := 0

	for i, info := range infos {
		if i == newest || !info.Created.Before(cutoff) {
			continue
		}

		err := s.Delete(dir, info.ID)
		if err != nil {
			return deleted, err
		}

		deleted++
	}

	return deleted, nil
}
