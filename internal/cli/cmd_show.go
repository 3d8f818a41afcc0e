package cli

import (
	"errors"

	"github.com/specforge/specforge/internal/document"
	"github.com/specforge/specforge/internal/feature"
)

var errFeatureRefRequired = errors.New("feature reference is required")

func cmdShow(o *IO, store *feature.Store, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge show <feature>")
		o.Println()
		o.Println("Print a feature's specification document. The feature can be")
		o.Println("referenced by number (7), directory name (0007-login), or a")
		o.Println("unique slug fragment (login).")

		return nil
	}

	if len(args) < 1 {
		return errFeatureRefRequired
	}

	f, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	doc, warnings, err := store.LoadDocument(f)
	if err != nil {
		return err
	}

	warnFieldErrors(o, f, warnings)

	o.Printf("%s", doc.Render())

	return nil
}

// warnFieldErrors surfaces metadata degradation as warnings: the document is
// still served, but the caller is told which fields were ignored.
func warnFieldErrors(o *IO, f feature.Feature, warnings []document.FieldError) {
	for _, w := range warnings {
		o.Warn(f.DirName()+": "+w.Error(), "fix the metadata block in "+f.SpecPath())
	}
}
