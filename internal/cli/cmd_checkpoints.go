package cli

import (
	"math"

	"github.com/specforge/specforge/internal/feature"
)

func cmdCheckpoints(o *IO, store *feature.Store, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge checkpoints <feature>")
		o.Println()
		o.Println("List a feature's checkpoints, oldest first.")

		return nil
	}

	if len(args) < 1 {
		return errFeatureRefRequired
	}

	f, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	infos, err := store.Checkpoints(f)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		o.Println("no checkpoints")

		return nil
	}

	for _, info := range infos {
		o.Printf("%s  tier %d  %3.0f%%  %s\n",
			info.ID, info.Tier, math.Round(info.Progress*100), info.Description)
	}

	return nil
}
