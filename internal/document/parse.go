package document

import (
	"strconv"
	"strings"
	"time"
)

// Metadata field names as they appear on disk.
const (
	fieldTier              = "tier"
	fieldProgress          = "progress"
	fieldSectionsCompleted = "sections_completed"
	fieldLastCheckpoint    = "last_checkpoint"
	fieldLastUpdated       = "last_updated"
)

const metaDelimiter = "---"

// Parse parses raw document bytes.
//
// Parsing never fails: malformed metadata degrades per field and is reported
// through the returned [FieldError] slice, and any body content that is not
// a recognized heading is preserved as preamble or section content.
func Parse(raw []byte) (*Document, []FieldError) {
	lines := strings.Split(string(raw), "\n")

	doc := &Document{}

	var warnings []FieldError

	bodyStart := 0

	if len(lines) > 0 && strings.TrimSpace(lines[0]) == metaDelimiter {
		closeIdx := -1

		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == metaDelimiter {
				closeIdx = i

				break
			}
		}

		if closeIdx == -1 {
			warnings = append(warnings, FieldError{
				Field:  "metadata",
				Line:   1,
				Reason: "unterminated metadata block",
			})
		} else {
			warnings = append(warnings, parseMetadata(lines[1:closeIdx], &doc.Meta)...)
			bodyStart = closeIdx + 1
		}
	}

	parseBody(lines[bodyStart:], doc)

	return doc, warnings
}

// parseMetadata fills meta from the fenced block's lines. metaLines[0] is
// document line 2. Every malformed line becomes a warning, never an abort.
func parseMetadata(metaLines []string, meta *Metadata) []FieldError {
	var warnings []FieldError

	warn := func(field string, idx int, reason string) {
		warnings = append(warnings, FieldError{Field: field, Line: idx + 2, Reason: reason})
	}

	for i, line := range metaLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			warn("metadata", i, "no key separator")

			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case fieldTier:
			tier, err := strconv.Atoi(value)
			if err != nil || tier < 0 {
				warn(fieldTier, i, "not a non-negative integer: "+strconv.Quote(value))

				continue
			}

			meta.Tier = tier

		case fieldProgress:
			progress, err := strconv.ParseFloat(value, 64)
			if err != nil || progress < 0 || progress > 1 {
				warn(fieldProgress, i, "not a fraction in [0, 1]: "+strconv.Quote(value))

				continue
			}

			meta.Progress = progress

		case fieldSectionsCompleted:
			keys, ok := parseInlineList(value)
			if !ok {
				warn(fieldSectionsCompleted, i, "not an inline list: "+strconv.Quote(value))

				continue
			}

			meta.SectionsCompleted = keys

		case fieldLastCheckpoint:
			if value == "" {
				warn(fieldLastCheckpoint, i, "empty value")

				continue
			}

			meta.LastCheckpoint = value

		case fieldLastUpdated:
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				warn(fieldLastUpdated, i, "not an RFC3339 timestamp: "+strconv.Quote(value))

				continue
			}

			meta.LastUpdated = ts.UTC()

		default:
			warn(key, i, "unknown field")
		}
	}

	return warnings
}

// parseInlineList parses "[a, b, c]" into its items. "[]" yields nil.
func parseInlineList(value string) ([]string, bool) {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, false
	}

	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return nil, true
	}

	parts := strings.Split(inner, ",")

	items := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}

		items = append(items, p)
	}

	return items, true
}

// parseBody splits the body into title, preamble, and sections.
func parseBody(lines []string, doc *Document) {
	var (
		current      *Section
		contentLines []string
		preamble     []string
		sawTitle     bool
	)

	flush := func() {
		if current != nil {
			current.Content = trimBlankFrame(contentLines)
			doc.Sections = append(doc.Sections, *current)
		}

		contentLines = nil
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()

			title := strings.TrimSpace(line[3:])
			current = &Section{Key: KeyFromTitle(title), Title: title}

		case current != nil:
			contentLines = append(contentLines, line)

		case !sawTitle && strings.HasPrefix(line, "# "):
			doc.Title = strings.TrimSpace(line[2:])
			sawTitle = true

		default:
			preamble = append(preamble, line)
		}
	}

	flush()

	doc.Preamble = trimBlankFrame(preamble)
}

// trimBlankFrame joins lines and strips the surrounding blank lines render
// adds, leaving interior bytes untouched.
func trimBlankFrame(lines []string) string {
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
