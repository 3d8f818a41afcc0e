package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Render serializes the document into its canonical on-disk form. Render is
// deterministic and inverts [Parse]: Parse(Render(d)) reproduces d (with
// progress rounded to two decimals).
func (d *Document) Render() []byte {
	var b strings.Builder

	b.WriteString(metaDelimiter + "\n")
	fmt.Fprintf(&b, "%s: %d\n", fieldTier, d.Meta.Tier)
	fmt.Fprintf(&b, "%s: %s\n", fieldProgress, strconv.FormatFloat(d.Meta.Progress, 'f', 2, 64))
	fmt.Fprintf(&b, "%s: [%s]\n", fieldSectionsCompleted, strings.Join(d.Meta.SectionsCompleted, ", "))

	if d.Meta.LastCheckpoint != "" {
		fmt.Fprintf(&b, "%s: %s\n", fieldLastCheckpoint, d.Meta.LastCheckpoint)
	}

	if !d.Meta.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "%s: %s\n", fieldLastUpdated, d.Meta.LastUpdated.UTC().Format(time.RFC3339))
	}

	b.WriteString(metaDelimiter + "\n")

	if d.Title != "" {
		b.WriteString("\n# " + d.Title + "\n")
	}

	if d.Preamble != "" {
		b.WriteString("\n" + d.Preamble + "\n")
	}

	for _, s := range d.Sections {
		b.WriteString("\n## " + s.Title + "\n")

		if s.Content != "" {
			b.WriteString("\n" + s.Content + "\n")
		}
	}

	return []byte(b.String())
}
