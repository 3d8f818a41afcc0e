package cli

import (
	"math"

	"github.com/specforge/specforge/internal/feature"
)

func cmdLs(o *IO, store *feature.Store, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge ls")
		o.Println()
		o.Println("List all features, oldest first, with tier and progress.")

		return nil
	}

	features, err := store.List()
	if err != nil {
		return err
	}

	for _, f := range features {
		doc, warnings, loadErr := store.LoadDocument(f)
		if loadErr != nil {
			// One unreadable feature must not hide the rest.
			o.Warn(f.DirName()+": "+loadErr.Error(), "check the feature directory")

			continue
		}

		warnFieldErrors(o, f, warnings)

		o.Printf("%s  tier %d  %3.0f%%  %s\n",
			f.DirName(), doc.Meta.Tier, math.Round(doc.Meta.Progress*100), doc.Title)
	}

	return nil
}
