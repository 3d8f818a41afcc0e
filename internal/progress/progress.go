// Package progress computes structural completion of a specification
// document against its tier's required section set.
package progress

import (
	"fmt"
	"strings"

	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/tier"
)

// Status is the derived state of one required section.
type Status string

const (
	// StatusMissing means the section is structurally absent.
	StatusMissing Status = "missing"

	// StatusPartial means the section exists but its content is still the
	// placeholder, empty, or too trivial to count.
	StatusPartial Status = "partial"

	// StatusComplete means the section has real content.
	StatusComplete Status = "complete"
)

// minSubstantiveLen is the minimum non-whitespace content length for a
// section to count as complete.
const minSubstantiveLen = 3

// SectionStatus reports one required section.
type SectionStatus struct {
	Key    string
	Title  string
	Status Status
}

// Report is the aggregate completion picture for a document.
//
// Every required section is weighted equally; Percent is the complete count
// over the required count.
type Report struct {
	Tier     int
	TierName string
	Percent  float64
	Sections []SectionStatus

	// NextSuggested is the key of the first missing or partial section in
	// template order, empty when every required section is complete.
	NextSuggested string

	// SuggestExpand is set when all sections are complete and a higher
	// tier exists.
	SuggestExpand bool
	NextTier      int

	// TierComplete is set when all sections are complete at the maximum
	// tier: there is nothing further to expand to.
	TierComplete bool
}

// Completed returns the keys of all complete sections, in template order.
func (r Report) Completed() []string {
	var keys []string

	for _, s := range r.Sections {
		if s.Status == StatusComplete {
			keys = append(keys, s.Key)
		}
	}

	return keys
}

// Evaluate scores doc against the schema tier recorded in its metadata.
// A document with no recorded tier (tier 0) is scored against tier 1.
func Evaluate(doc *document.Document, schema *tier.Schema) (Report, error) {
	level := doc.Meta.Tier
	if level == 0 {
		level = 1
	}

	t, ok := schema.TierFor(level)
	if !ok {
		return Report{}, fmt.Errorf("document records tier %d but schema defines tiers 1..%d", level, schema.MaxTier())
	}

	report := Report{Tier: t.Level, TierName: t.Name}

	complete := 0

	for _, tmpl := range t.Sections {
		status := sectionStatus(doc, tmpl)
		if status == StatusComplete {
			complete++
		} else if report.NextSuggested == "" {
			report.NextSuggested = tmpl.Key
		}

		report.Sections = append(report.Sections, SectionStatus{
			Key:    tmpl.Key,
			Title:  tmpl.Title,
			Status: status,
		})
	}

	report.Percent = float64(complete) / float64(len(t.Sections))

	if report.NextSuggested == "" {
		if t.Level < schema.MaxTier() {
			report.SuggestExpand = true
			report.NextTier = t.Level + 1
		} else {
			report.TierComplete = true
		}
	}

	return report, nil
}

func sectionStatus(doc *document.Document, tmpl tier.SectionTemplate) Status {
	sec, ok := doc.Section(tmpl.Key)
	if !ok {
		return StatusMissing
	}

	content := strings.TrimSpace(sec.Content)

	if content == strings.TrimSpace(tmpl.Placeholder) {
		return StatusPartial
	}

	if substantiveLen(content) < minSubstantiveLen {
		return StatusPartial
	}

	return StatusComplete
}

func substantiveLen(content string) int {
	n := 0

	for _, r := range content {
		if !strings.ContainsRune(" \t\r\n", r) {
			n++
		}
	}

	return n
}
