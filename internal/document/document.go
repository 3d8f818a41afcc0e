// Package document models a specification document: a leading metadata
// block followed by markdown sections.
//
// The metadata block is a restricted "key: value" line format fenced by
// "---" lines, similar in spirit to markdown frontmatter but parsed
// tolerantly: a malformed or unknown line degrades to "field absent" and is
// reported as a [FieldError] warning. A single bad line never aborts parsing
// of the rest of the document.
//
// The body is a sequence of "## Title" sections. Section content between
// headings is preserved byte-for-byte across a parse/render cycle, modulo
// the single blank-line frame render places around each block.
package document

import (
	"fmt"
	"strings"
	"time"
)

// Metadata is the structured block at the top of a document.
//
// Any field can be absent; absent fields keep their zero value. Tier 0 means
// "no recorded tier" (a document that has never been initialized by the
// lifecycle store).
type Metadata struct {
	Tier              int       // recorded detail tier
	Progress          float64   // completion fraction, 0..1
	SectionsCompleted []string  // section keys considered complete
	LastCheckpoint    string    // id of the most recent checkpoint, if any
	LastUpdated       time.Time // last mutation timestamp, UTC
}

// Section is a named unit of document content. Key is the canonical
// identifier ("user_stories"), Title the rendered heading ("User Stories").
type Section struct {
	Key     string
	Title   string
	Content string
}

// Document is a parsed specification document.
type Document struct {
	Meta     Metadata
	Title    string // H1 heading, without the "# " prefix
	Preamble string // body text between the H1 and the first section
	Sections []Section
}

// FieldError reports a metadata field that was malformed or unknown and was
// degraded to absent during parsing.
type FieldError struct {
	Field  string // field name, or "metadata" for block-level problems
	Line   int    // 1-based line number in the document
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("metadata line %d: field %q: %s", e.Line, e.Field, e.Reason)
}

// Section returns the section with the given key.
func (d *Document) Section(key string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Key == key {
			return s, true
		}
	}

	return Section{}, false
}

// SectionKeys returns the keys of all sections in document order.
func (d *Document) SectionKeys() []string {
	keys := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		keys[i] = s.Key
	}

	return keys
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := *d
	out.Meta.SectionsCompleted = append([]string(nil), d.Meta.SectionsCompleted...)
	out.Sections = append([]Section(nil), d.Sections...)

	return &out
}

// KeyFromTitle derives the canonical section key from a heading title:
// lowercase, with each run of non-alphanumeric characters collapsed to a
// single underscore. "User Stories" becomes "user_stories".
func KeyFromTitle(title string) string {
	var b strings.Builder

	lastUnderscore := true // suppress leading underscore

	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)

			lastUnderscore = false

			continue
		}

		if !lastUnderscore {
			b.WriteByte('_')

			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}
