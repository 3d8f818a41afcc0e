// Package checkpoint stores immutable, integrity-verified snapshots of
// specification documents.
//
// Each checkpoint is a content file plus a JSON sidecar record, both named
// by the checkpoint id inside a per-feature checkpoint directory:
//
//	checkpoints/
//	  20260823T101500.000Z-V9KJ2M4A.md    document content at snapshot time
//	  20260823T101500.000Z-V9KJ2M4A.json  sidecar (hash, size, metadata)
//
// Every write is atomic (temp file then rename), content before sidecar, so
// a crash can leave at worst an orphaned content file that no sidecar refers
// to - never a sidecar pointing at missing or partial content.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/fs"
)

const (
	contentExt = ".md"
	sidecarExt = ".json"

	checkpointFilePerm = 0o644
	checkpointDirPerm  = 0o755
)

// DefaultMaxBytes is the default checkpoint content size limit.
const DefaultMaxBytes = 10 << 20 // 10 MB

// Info is the sidecar record for one checkpoint. ID is derived from the
// filename and not serialized.
type Info struct {
	ID                string    `json:"-"`
	Created           time.Time `json:"created"`
	Description       string    `json:"description"`
	Tier              int       `json:"tier"`
	Progress          float64   `json:"progress"`
	SectionsCompleted []string  `json:"sections_completed"`
	FileHash          string    `json:"file_hash"`
	FileSizeBytes     int64     `json:"file_size_bytes"`
}

// Store reads and writes checkpoints. One Store serves any number of
// feature checkpoint directories.
type Store struct {
	fs       fs.FS
	maxBytes int64
	now      func() time.Time
}

// Options configures a [Store].
type Options struct {
	// MaxBytes caps checkpoint content size. 0 means [DefaultMaxBytes].
	MaxBytes int64

	// Now supplies timestamps. nil means [time.Now].
	Now func() time.Time
}

// New creates a Store.
func New(filesys fs.FS, opts Options) *Store {
	if opts.MaxBytes == 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		fs:       filesys,
		maxBytes: opts.MaxBytes,
		now:      opts.Now,
	}
}

// Create snapshots content into dir and returns the new checkpoint id.
// meta is the document metadata active at snapshot time; it is copied into
// the sidecar so a listing can show tier and progress without loading
// content.
func (s *Store) Create(dir string, content []byte, meta document.Metadata, description string) (string, error) {
	size := int64(len(content))
	if size > s.maxBytes {
		return "", &TooLargeError{Size: size, Max: s.maxBytes}
	}

	err := s.fs.MkdirAll(dir, checkpointDirPerm)
	if err != nil {
		return "", fmt.Errorf("creating checkpoint dir %s: %w", dir, err)
	}

	id, err := newID()
	if err != nil {
		return "", err
	}

	contentPath := filepath.Join(dir, id+contentExt)

	err = s.fs.WriteFileAtomic(contentPath, content, checkpointFilePerm)
	if err != nil {
		return "", fmt.Errorf("writing checkpoint content %s: %w", contentPath, err)
	}

	hash := sha256.Sum256(content)

	info := Info{
		Created:           s.now().UTC(),
		Description:       description,
		Tier:              meta.Tier,
		Progress:          meta.Progress,
		SectionsCompleted: meta.SectionsCompleted,
		FileHash:          hex.EncodeToString(hash[:]),
		FileSizeBytes:     size,
	}

	sidecar, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding checkpoint sidecar: %w", err)
	}

	sidecarPath := filepath.Join(dir, id+sidecarExt)

	err = s.fs.WriteFileAtomic(sidecarPath, append(sidecar, '\n'), checkpointFilePerm)
	if err != nil {
		// Don't leave content without a sidecar; the pair is the checkpoint.
		_ = s.fs.Remove(contentPath)

		return "", fmt.Errorf("writing checkpoint sidecar %s: %w", sidecarPath, err)
	}

	return id, nil
}

// List returns the sidecar records in dir ordered by creation (id order),
// without loading checkpoint content. A missing directory is an empty list.
// An unreadable or malformed sidecar is skipped; one corrupt record must not
// hide the healthy ones.
func (s *Store) List(dir string) ([]Info, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading checkpoint dir %s: %w", dir, err)
	}

	var infos []Info

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, sidecarExt) {
			continue
		}

		raw, readErr := s.fs.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			continue
		}

		var info Info
		if json.Unmarshal(raw, &info) != nil {
			continue
		}

		info.ID = strings.TrimSuffix(name, sidecarExt)
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return infos, nil
}

// Load returns a checkpoint's content and sidecar after verifying the
// stored hash against the stored bytes. A mismatch returns an
// *[IntegrityError] and no content: corrupted checkpoints are unusable, not
// silently served.
func (s *Store) Load(dir, id string) ([]byte, Info, error) {
	sidecarPath := filepath.Join(dir, id+sidecarExt)

	raw, err := s.fs.ReadFile(sidecarPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Info{}, &NotFoundError{ID: id}
		}

		return nil, Info{}, fmt.Errorf("reading checkpoint sidecar %s: %w", sidecarPath, err)
	}

	var info Info

	err = json.Unmarshal(raw, &info)
	if err != nil {
		return nil, Info{}, fmt.Errorf("decoding checkpoint sidecar %s: %w", sidecarPath, err)
	}

	info.ID = id

	contentPath := filepath.Join(dir, id+contentExt)

	content, err := s.fs.ReadFile(contentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Info{}, &NotFoundError{ID: id}
		}

		return nil, Info{}, fmt.Errorf("reading checkpoint content %s: %w", contentPath, err)
	}

	hash := sha256.Sum256(content)

	got := hex.EncodeToString(hash[:])
	if got != info.FileHash {
		return nil, Info{}, &IntegrityError{ID: id, WantHash: info.FileHash, GotHash: got}
	}

	return content, info, nil
}
