package cli

import (
	"math"

	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/progress"
)

func cmdProgress(o *IO, store *feature.Store, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge progress <feature>")
		o.Println()
		o.Println("Show section-by-section completion for a feature's current tier,")
		o.Println("with a suggested next step.")

		return nil
	}

	if len(args) < 1 {
		return errFeatureRefRequired
	}

	f, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	report, warnings, err := store.Evaluate(f)
	if err != nil {
		return err
	}

	warnFieldErrors(o, f, warnings)

	o.Printf("%s  tier %d (%s)  %.0f%%\n", f.DirName(), report.Tier, report.TierName, math.Round(report.Percent*100))
	o.Println()

	for _, s := range report.Sections {
		o.Printf("  %s %-20s %s\n", statusMark(s.Status), s.Key, s.Status)
	}

	o.Println()

	switch {
	case report.TierComplete:
		o.Println("All sections complete at the highest tier.")
	case report.SuggestExpand:
		o.Printf("All sections complete. Next: specforge expand %d --to %d\n", f.Num, report.NextTier)
	default:
		o.Printf("Next: fill in the %q section.\n", report.NextSuggested)
	}

	return nil
}

func statusMark(s progress.Status) string {
	switch s {
	case progress.StatusComplete:
		return "[x]"
	case progress.StatusPartial:
		return "[~]"
	default:
		return "[ ]"
	}
}
