package cli

import (
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/specforge/specforge/internal/feature"
)

const expandHelp = `  expand <feature>       Expand a feature to the next tier
    --to                   Target tier [default: current + 1]
    --force                Allow downgrades (higher-tier sections are dropped)`

func cmdExpand(o *IO, store *feature.Store, args []string) error {
	flagSet := flag.NewFlagSet("expand", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})

	target := flagSet.Int("to", 0, "Target tier")
	force := flagSet.Bool("force", false, "Allow downgrades")

	if hasHelpFlag(args) {
		printExpandHelp(o)

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

	merged, ckptID, err := store.Expand(f, *target, *force)
	if err != nil {
		return err
	}

	o.Printf("%s expanded to tier %d (checkpoint %s)\n", f.DirName(), merged.Meta.Tier, ckptID)

	return nil
}

func printExpandHelp(o *IO) {
	o.Println("Usage: specforge expand <feature> [options]")
	o.Println()
	o.Println("Expand a feature's document to a higher tier. Existing section")
	o.Println("content is preserved byte-for-byte; sections the new tier requires")
	o.Println("are added with placeholder guidance. A checkpoint is taken before")
	o.Println("every expansion.")
	o.Println()
	o.Println("Options:")
	o.Println("  --to=N     Target tier [default: current + 1]")
	o.Println("  --force    Allow downgrades (higher-tier sections are dropped;")
	o.Println("             the pre-expansion checkpoint keeps them recoverable)")
}
