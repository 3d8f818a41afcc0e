package tier

import (
	"fmt"

	"github.com/specforge/specforge/internal/document"
)

// Expand merges doc into the section layout of target and returns a new
// document. The input document is never modified.
//
// The transition must be exactly one tier up. With force, a downgrade to any
// existing lower tier is also permitted; sections not present in the target
// tier are then dropped (the lifecycle layer checkpoints before every
// expansion, so a forced drop stays reversible).
//
// Content preservation: every section of doc whose key survives the
// transition is carried forward byte-for-byte, heading included. On upgrade
// that is every section - including ad-hoc sections that belong to no tier,
// which are appended after the template's sections in their original order.
// Sections the target tier requires but doc lacks are inserted with their
// placeholder content, in the template's canonical order.
//
// Expand is a pure structural merge: it sets the new tier on the result but
// leaves progress, completed-section, and timestamp metadata for the caller
// to recompute (the lifecycle store does this via the progress calculator).
func (s *Schema) Expand(doc *document.Document, target int, force bool) (*document.Document, error) {
	current := doc.Meta.Tier

	template, ok := s.TierFor(target)
	if !ok {
		return nil, &InvalidTransitionError{
			Current:   current,
			Requested: target,
			Reason:    fmt.Sprintf("tier %d does not exist (max %d)", target, s.MaxTier()),
		}
	}

	downgrade := target <= current

	switch {
	case target == current+1:
		// The only transition allowed without force.
	case downgrade && force:
		// Explicitly forced downgrade.
	case downgrade:
		return nil, &InvalidTransitionError{
			Current:   current,
			Requested: target,
			Reason:    "downgrade requires force",
		}
	default:
		return nil, &InvalidTransitionError{
			Current:   current,
			Requested: target,
			Reason:    "target must be exactly one tier above current",
		}
	}

	out := doc.Clone()
	out.Meta.Tier = target
	out.Sections = mergeSections(doc, template, !downgrade)

	return out, nil
}

// mergeSections builds the target section list: template order first
// (existing content wins over placeholders), then - when keepExtras is set -
// any document sections the template does not know about.
func mergeSections(doc *document.Document, template Tier, keepExtras bool) []document.Section {
	merged := make([]document.Section, 0, len(doc.Sections)+len(template.Sections))

	inTemplate := make(map[string]bool, len(template.Sections))

	for _, tmpl := range template.Sections {
		inTemplate[tmpl.Key] = true

		if existing, ok := doc.Section(tmpl.Key); ok {
			merged = append(merged, existing)

			continue
		}

		merged = append(merged, document.Section{
			Key:     tmpl.Key,
			Title:   tmpl.Title,
			Content: tmpl.Placeholder,
		})
	}

	if !keepExtras {
		return merged
	}

	for _, sec := range doc.Sections {
		if !inTemplate[sec.Key] {
			merged = append(merged, sec)
		}
	}

	return merged
}

// Scaffold builds a fresh document at the given tier: every section filled
// with its placeholder, title set, tier recorded.
func (s *Schema) Scaffold(title string, level int) (*document.Document, error) {
	t, ok := s.TierFor(level)
	if !ok {
		return nil, &InvalidTransitionError{
			Requested: level,
			Reason:    fmt.Sprintf("tier %d does not exist (max %d)", level, s.MaxTier()),
		}
	}

	doc := &document.Document{
		Meta:  document.Metadata{Tier: level},
		Title: title,
	}

	for _, tmpl := range t.Sections {
		doc.Sections = append(doc.Sections, document.Section{
			Key:     tmpl.Key,
			Title:   tmpl.Title,
			Content: tmpl.Placeholder,
		})
	}

	return doc, nil
}
