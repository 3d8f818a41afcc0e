package cli

import (
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/specforge/specforge/internal/feature"
)

const cleanupHelp = `  cleanup <feature>      Prune old checkpoints (the newest always survives)
    --older-than           Retention in days [default: from config]`

func cmdCleanup(o *IO, store *feature.Store, args []string) error {
	flagSet := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})

	olderThan := flagSet.Int("older-than", 0, "Retention in days")

	if hasHelpFlag(args) {
		o.Println("Usage: specforge cleanup <feature> [--older-than <days>]")
		o.Println()
		o.Println("Delete checkpoints older than the retention window. The newest")
		o.Println("checkpoint is never deleted, regardless of age.")

		return nil
	}

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	if flagSet.NArg() < 1 {
		return errFeatureRefRequired
	}

	f, err := store.Resolve(flagSet.Arg(0))
	if err != nil {
		return err
	}

	deleted, err := store.Cleanup(f, *olderThan)
	if err != nil {
		return err
	}

	o.Printf("deleted %d checkpoint(s)\n", deleted)

	return nil
}
