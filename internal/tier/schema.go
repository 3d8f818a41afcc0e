// Package tier defines the detail-tier schema for specification documents
// and the merge engine that expands a document from one tier to the next.
//
// A schema is an ordered list of tiers; each tier lists the sections a
// document at that level must contain. Tiers inherit monotonically: tier N
// repeats every section key of tier N-1, verbatim and in the same relative
// order, then adds its own. [Schema.Validate] enforces this at load time so
// the merge engine can rely on it.
package tier

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/fs"
)

// SectionTemplate declares one required section of a tier.
type SectionTemplate struct {
	// Key is the canonical section identifier, e.g. "user_stories".
	// It must equal document.KeyFromTitle(Title).
	Key string `yaml:"key"`

	// Title is the rendered markdown heading, e.g. "User Stories".
	Title string `yaml:"title"`

	// Placeholder is the guidance content inserted when the section is
	// first scaffolded. A section whose content still equals its
	// placeholder is not complete.
	Placeholder string `yaml:"placeholder"`
}

// Tier is one detail level of the schema.
type Tier struct {
	Level    int               `yaml:"level"`
	Name     string            `yaml:"name"`
	Sections []SectionTemplate `yaml:"sections"`
}

// Schema is the ordered set of tiers. Immutable after load.
type Schema struct {
	Tiers []Tier `yaml:"tiers"`
}

//go:embed schema.yaml
var defaultSchemaYAML []byte

var (
	defaultSchemaOnce sync.Once
	defaultSchema     *Schema
)

// Default returns the built-in schema. Panics only if the embedded schema is
// invalid, which is a build defect.
func Default() *Schema {
	defaultSchemaOnce.Do(func() {
		s, err := parse(defaultSchemaYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded schema.yaml is invalid: %v", err))
		}

		defaultSchema = s
	})

	return defaultSchema
}

// DefaultYAML returns a copy of the built-in schema's YAML source, suitable
// for seeding a project-local schema file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultSchemaYAML))
	copy(out, defaultSchemaYAML)

	return out
}

// Load reads and validates a schema override file.
func Load(filesys fs.FS, path string) (*Schema, error) {
	raw, err := filesys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}

	s, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}

	return s, nil
}

func parse(raw []byte) (*Schema, error) {
	var s Schema

	err := yaml.Unmarshal(raw, &s)
	if err != nil {
		return nil, &TemplateError{Reason: fmt.Sprintf("yaml: %v", err)}
	}

	err = s.Validate()
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks structural soundness: at least one tier, contiguous levels
// starting at 1, non-empty tiers, keys that match their titles, no duplicate
// keys within a tier, and monotonic inheritance across tiers.
func (s *Schema) Validate() error {
	if len(s.Tiers) == 0 {
		return &TemplateError{Reason: "schema has no tiers"}
	}

	for i, t := range s.Tiers {
		if t.Level != i+1 {
			return &TemplateError{
				Tier:   t.Level,
				Reason: fmt.Sprintf("tier levels must be contiguous from 1; position %d has level %d", i+1, t.Level),
			}
		}

		if len(t.Sections) == 0 {
			return &TemplateError{Tier: t.Level, Reason: "tier has no sections"}
		}

		seen := make(map[string]bool, len(t.Sections))

		for _, sec := range t.Sections {
			if sec.Key == "" {
				return &TemplateError{Tier: t.Level, Section: sec.Title, Reason: "section has empty key"}
			}

			if seen[sec.Key] {
				return &TemplateError{Tier: t.Level, Section: sec.Key, Reason: "duplicate section key"}
			}

			seen[sec.Key] = true

			if document.KeyFromTitle(sec.Title) != sec.Key {
				return &TemplateError{
					Tier:    t.Level,
					Section: sec.Key,
					Reason:  fmt.Sprintf("title %q does not canonicalize to key %q", sec.Title, sec.Key),
				}
			}
		}
	}

	return s.validateInheritance()
}

// validateInheritance checks that each tier's section keys are a strict
// superset of the previous tier's, preserved verbatim and in order.
func (s *Schema) validateInheritance() error {
	for i := 1; i < len(s.Tiers); i++ {
		lower, higher := s.Tiers[i-1], s.Tiers[i]

		pos := 0

		for _, want := range lower.Sections {
			found := false

			for ; pos < len(higher.Sections); pos++ {
				if higher.Sections[pos].Key == want.Key {
					found = true
					pos++

					break
				}
			}

			if !found {
				return &TemplateError{
					Tier:    higher.Level,
					Section: want.Key,
					Reason:  fmt.Sprintf("tier %d section missing or out of order in tier %d", lower.Level, higher.Level),
				}
			}
		}

		if len(higher.Sections) <= len(lower.Sections) {
			return &TemplateError{
				Tier:   higher.Level,
				Reason: fmt.Sprintf("tier %d adds no sections over tier %d", higher.Level, lower.Level),
			}
		}
	}

	return nil
}

// TierFor returns the tier with the given level.
func (s *Schema) TierFor(level int) (Tier, bool) {
	for _, t := range s.Tiers {
		if t.Level == level {
			return t, true
		}
	}

	return Tier{}, false
}

// MaxTier returns the highest tier level.
func (s *Schema) MaxTier() int {
	return s.Tiers[len(s.Tiers)-1].Level
}

// Section returns the template for key at the given tier level.
func (t Tier) Section(key string) (SectionTemplate, bool) {
	for _, sec := range t.Sections {
		if sec.Key == key {
			return sec, true
		}
	}

	return SectionTemplate{}, false
}
