// Package feature is the lifecycle store for specification documents. It
// composes the identifier allocator, tier schema, checkpoint store, and
// progress calculator, and owns the on-disk feature layout:
//
//	specs/
//	  .counter          shared feature id counter (+ .counter.lock)
//	  0007-login/
//	    spec.md         the live specification document
//	    checkpoints/    content + sidecar pairs, named by checkpoint id
package feature

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SpecFileName is the live document file inside a feature directory.
const SpecFileName = "spec.md"

// CheckpointsDirName is the checkpoint directory inside a feature directory.
const CheckpointsDirName = "checkpoints"

// Feature errors.
var (
	ErrFeatureNotFound  = errors.New("feature not found")
	ErrFeatureAmbiguous = errors.New("feature reference is ambiguous")
	ErrTitleRequired    = errors.New("feature title is required")
)

// Feature identifies one feature directory under the specs dir.
type Feature struct {
	Num  uint64 // counter-allocated id
	Slug string // title-derived directory slug
	Dir  string // absolute feature directory
}

// DirName returns the canonical "NNNN-slug" directory name.
func (f Feature) DirName() string {
	return fmt.Sprintf("%04d-%s", f.Num, f.Slug)
}

// SpecPath returns the live document path.
func (f Feature) SpecPath() string {
	return filepath.Join(f.Dir, SpecFileName)
}

// CheckpointsDir returns the feature's checkpoint directory.
func (f Feature) CheckpointsDir() string {
	return filepath.Join(f.Dir, CheckpointsDirName)
}

// Slugify derives a directory slug from a feature title: lowercase,
// alphanumeric runs joined by single hyphens. "Login Flow!" becomes
// "login-flow".
func Slugify(title string) string {
	var b strings.Builder

	lastHyphen := true // suppress leading hyphen

	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)

			lastHyphen = false

			continue
		}

		if !lastHyphen {
			b.WriteByte('-')

			lastHyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// parseDirName splits an "NNNN-slug" feature directory name. Directories
// that don't match the layout (dotfiles, strays) are skipped by listings.
func parseDirName(name string) (Feature, bool) {
	numPart, slug, found := strings.Cut(name, "-")
	if !found || slug == "" {
		return Feature{}, false
	}

	num, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return Feature{}, false
	}

	return Feature{Num: num, Slug: slug}, true
}

// List returns all features under the specs dir, ordered by number.
func (s *Store) List() ([]Feature, error) {
	entries, err := s.fs.ReadDir(s.cfg.SpecsDirAbs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading specs dir %s: %w", s.cfg.SpecsDirAbs, err)
	}

	var features []Feature

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		f, ok := parseDirName(entry.Name())
		if !ok {
			continue
		}

		f.Dir = filepath.Join(s.cfg.SpecsDirAbs, entry.Name())
		features = append(features, f)
	}

	sort.Slice(features, func(i, j int) bool { return features[i].Num < features[j].Num })

	return features, nil
}

// Resolve finds a feature by reference: its number ("7"), its full
// directory name ("0007-login"), or a unique slug fragment ("login").
func (s *Store) Resolve(ref string) (Feature, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Feature{}, fmt.Errorf("%w: empty reference", ErrFeatureNotFound)
	}

	features, err := s.List()
	if err != nil {
		return Feature{}, err
	}

	if num, numErr := strconv.ParseUint(ref, 10, 64); numErr == nil {
		for _, f := range features {
			if f.Num == num {
				return f, nil
			}
		}

		return Feature{}, fmt.Errorf("%w: number %d", ErrFeatureNotFound, num)
	}

	var matches []Feature

	for _, f := range features {
		if f.DirName() == ref {
			return f, nil
		}

		if strings.Contains(f.Slug, ref) {
			matches = append(matches, f)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Feature{}, fmt.Errorf("%w: %q", ErrFeatureNotFound, ref)
	default:
		names := make([]string, len(matches))
		for i, f := range matches {
			names[i] = f.DirName()
		}

		return Feature{}, fmt.Errorf("%w: %q matches %s", ErrFeatureAmbiguous, ref, strings.Join(names, ", "))
	}
}
