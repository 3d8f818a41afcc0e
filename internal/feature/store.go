package feature

import (
	"errors"
	"fmt"
	"time"

	"github.com/specforge/specforge/internal/checkpoint"
	"github.com/specforge/specforge/internal/counter"
	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/fs"
	"github.com/specforge/specforge/internal/progress"
	"github.com/specforge/specforge/internal/tier"
)

const (
	specFilePerm = 0o644
	specDirPerm  = 0o755
)

// Store is the specification lifecycle store.
//
// All mutating operations run synchronously in the caller's invocation; the
// only cross-process coordination is the allocator's counter lock. Multi-step
// mutations (expand, restore) follow a checkpoint-before / validate-after /
// rollback-on-failure protocol, so the live document on disk is never left
// in a partially migrated state.
type Store struct {
	cfg    Config
	fs     fs.FS
	schema *tier.Schema
	alloc  *counter.Allocator
	ckpts  *checkpoint.Store
	now    func() time.Time
}

// NewStore builds a Store from config. The tier schema comes from
// cfg.SchemaPath when set, otherwise the built-in default.
func NewStore(cfg Config, filesys fs.FS) (*Store, error) {
	schema := tier.Default()

	if cfg.SchemaPath != "" {
		loaded, err := tier.Load(filesys, cfg.SchemaPath)
		if err != nil {
			return nil, err
		}

		schema = loaded
	}

	lockTimeout := time.Duration(cfg.LockTimeoutMS) * time.Millisecond

	return &Store{
		cfg:    cfg,
		fs:     filesys,
		schema: schema,
		alloc:  counter.New(filesys, lockTimeout),
		ckpts: checkpoint.New(filesys, checkpoint.Options{
			MaxBytes: cfg.MaxCheckpointBytes,
		}),
		now: time.Now,
	}, nil
}

// Schema returns the store's tier schema.
func (s *Store) Schema() *tier.Schema {
	return s.schema
}

// Config returns the store's resolved configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Create allocates the next feature id and scaffolds a new specification
// document at the given tier (0 means tier 1). The id comes from the shared
// counter and is never reused, even if scaffolding fails afterwards.
func (s *Store) Create(title string, level int) (Feature, error) {
	slug := Slugify(title)
	if slug == "" {
		return Feature{}, ErrTitleRequired
	}

	if level == 0 {
		level = 1
	}

	doc, err := s.schema.Scaffold(title, level)
	if err != nil {
		return Feature{}, err
	}

	num, err := s.alloc.Next(s.cfg.CounterPath())
	if err != nil {
		return Feature{}, err
	}

	f := Feature{Num: num, Slug: slug}
	f.Dir = s.cfg.SpecsDirAbs + "/" + f.DirName()

	exists, err := s.fs.Exists(f.Dir)
	if err != nil {
		return Feature{}, fmt.Errorf("checking feature dir %s: %w", f.Dir, err)
	}

	if exists {
		return Feature{}, fmt.Errorf("feature dir %s already exists", f.Dir)
	}

	err = s.fs.MkdirAll(f.Dir, specDirPerm)
	if err != nil {
		return Feature{}, fmt.Errorf("creating feature dir %s: %w", f.Dir, err)
	}

	report, err := progress.Evaluate(doc, s.schema)
	if err != nil {
		return Feature{}, err
	}

	doc.Meta.Progress = report.Percent
	doc.Meta.SectionsCompleted = report.Completed()
	doc.Meta.LastUpdated = s.now().UTC()

	err = s.fs.WriteFileAtomic(f.SpecPath(), doc.Render(), specFilePerm)
	if err != nil {
		return Feature{}, fmt.Errorf("writing %s: %w", f.SpecPath(), err)
	}

	return f, nil
}

// LoadDocument reads and parses a feature's live document. The returned
// warnings describe metadata fields that were degraded during parsing.
func (s *Store) LoadDocument(f Feature) (*document.Document, []document.FieldError, error) {
	raw, err := s.fs.ReadFile(f.SpecPath())
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", f.SpecPath(), err)
	}

	doc, warnings := document.Parse(raw)

	return doc, warnings, nil
}

// Evaluate scores a feature's document against the schema.
func (s *Store) Evaluate(f Feature) (progress.Report, []document.FieldError, error) {
	doc, warnings, err := s.LoadDocument(f)
	if err != nil {
		return progress.Report{}, nil, err
	}

	report, err := progress.Evaluate(doc, s.schema)
	if err != nil {
		return progress.Report{}, warnings, err
	}

	return report, warnings, nil
}

// Expand migrates a feature's document to target (0 means one tier up from
// its recorded tier). Returns the new document and the id of the
// pre-expansion checkpoint.
//
// The sequence is checkpoint, merge, validate, write, re-validate. Any
// failure once the live document may have been touched restores the
// pre-expansion checkpoint before the error is surfaced.
func (s *Store) Expand(f Feature, target int, force bool) (*document.Document, string, error) {
	raw, err := s.fs.ReadFile(f.SpecPath())
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", f.SpecPath(), err)
	}

	doc, _ := document.Parse(raw)

	if target == 0 {
		target = doc.Meta.Tier + 1
	}

	ckptID, err := s.ckpts.Create(
		f.CheckpointsDir(),
		raw,
		doc.Meta,
		fmt.Sprintf("auto: before expand to tier %d", target),
	)
	if err != nil {
		return nil, "", fmt.Errorf("pre-expansion checkpoint: %w", err)
	}

	merged, err := s.schema.Expand(doc, target, force)
	if err != nil {
		return nil, ckptID, err
	}

	report, err := progress.Evaluate(merged, s.schema)
	if err != nil {
		return nil, ckptID, err
	}

	merged.Meta.Progress = report.Percent
	merged.Meta.SectionsCompleted = report.Completed()
	merged.Meta.LastCheckpoint = ckptID
	merged.Meta.LastUpdated = s.now().UTC()

	downgrade := target <= doc.Meta.Tier

	err = verifyExpansion(doc, merged, s.schema, downgrade)
	if err != nil {
		return nil, ckptID, err
	}

	err = s.fs.WriteFileAtomic(f.SpecPath(), merged.Render(), specFilePerm)
	if err != nil {
		return nil, ckptID, s.rollback(f, ckptID, fmt.Errorf("writing %s: %w", f.SpecPath(), err))
	}

	err = s.verifyOnDisk(f, target)
	if err != nil {
		return nil, ckptID, s.rollback(f, ckptID, err)
	}

	return merged, ckptID, nil
}

// verifyExpansion checks the merge result before it touches disk: the target
// tier's sections must all be present, and (on upgrade) every section of the
// old document must survive byte-for-byte.
func verifyExpansion(old, merged *document.Document, schema *tier.Schema, downgrade bool) error {
	t, ok := schema.TierFor(merged.Meta.Tier)
	if !ok {
		return fmt.Errorf("merged document records unknown tier %d", merged.Meta.Tier)
	}

	for _, tmpl := range t.Sections {
		if _, found := merged.Section(tmpl.Key); !found {
			return fmt.Errorf("expansion lost required section %q", tmpl.Key)
		}
	}

	if downgrade {
		return nil
	}

	for _, sec := range old.Sections {
		got, found := merged.Section(sec.Key)
		if !found {
			return fmt.Errorf("expansion dropped section %q", sec.Key)
		}

		if got.Content != sec.Content {
			return fmt.Errorf("expansion altered content of section %q", sec.Key)
		}
	}

	return nil
}

// verifyOnDisk re-reads the live document after a write and confirms it
// parses back at the expected tier with a computable progress report.
func (s *Store) verifyOnDisk(f Feature, wantTier int) error {
	raw, err := s.fs.ReadFile(f.SpecPath())
	if err != nil {
		return fmt.Errorf("re-reading %s: %w", f.SpecPath(), err)
	}

	written, _ := document.Parse(raw)

	if written.Meta.Tier != wantTier {
		return fmt.Errorf("written document records tier %d, want %d", written.Meta.Tier, wantTier)
	}

	_, err = progress.Evaluate(written, s.schema)
	if err != nil {
		return fmt.Errorf("written document does not evaluate: %w", err)
	}

	return nil
}

// rollback restores the pre-operation checkpoint and returns cause, joined
// with the restore error if the rollback itself failed.
func (s *Store) rollback(f Feature, ckptID string, cause error) error {
	_, restoreErr := s.ckpts.Restore(f.CheckpointsDir(), ckptID, f.SpecPath())
	if restoreErr != nil {
		return errors.Join(
			cause,
			fmt.Errorf("rollback to checkpoint %s failed: %w", ckptID, restoreErr),
		)
	}

	return fmt.Errorf("rolled back to checkpoint %s: %w", ckptID, cause)
}

// Checkpoint snapshots a feature's live document with a description.
// The live document itself is not rewritten.
func (s *Store) Checkpoint(f Feature, description string) (string, error) {
	raw, err := s.fs.ReadFile(f.SpecPath())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.SpecPath(), err)
	}

	doc, _ := document.Parse(raw)

	return s.ckpts.Create(f.CheckpointsDir(), raw, doc.Meta, description)
}

// Checkpoints lists a feature's checkpoints, oldest first.
func (s *Store) Checkpoints(f Feature) ([]checkpoint.Info, error) {
	return s.ckpts.List(f.CheckpointsDir())
}

// Restore overwrites the live document with a checkpoint's verified content.
// Returns the id of the safety checkpoint taken beforehand.
func (s *Store) Restore(f Feature, checkpointID string) (string, error) {
	return s.ckpts.Restore(f.CheckpointsDir(), checkpointID, f.SpecPath())
}

// Cleanup prunes checkpoints older than days (0 means the configured
// retention). The newest checkpoint always survives.
func (s *Store) Cleanup(f Feature, days int) (int, error) {
	if days == 0 {
		days = s.cfg.RetentionDays
	}

	return s.ckpts.Cleanup(f.CheckpointsDir(), days)
}

// DeleteCheckpoint removes one checkpoint by id.
func (s *Store) DeleteCheckpoint(f Feature, checkpointID string) error {
	return s.ckpts.Delete(f.CheckpointsDir(), checkpointID)
}
