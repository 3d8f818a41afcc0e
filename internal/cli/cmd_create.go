package cli

import (
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/specforge/specforge/internal/feature"
)

const createHelp = `  create <title>         Create a feature, prints its directory name
    -t, --tier             Starting tier [default: 1]`

func cmdCreate(o *IO, store *feature.Store, args []string) error {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})

	tierLevel := flagSet.IntP("tier", "t", 1, "Starting tier")

	if hasHelpFlag(args) {
		printCreateHelp(o)

		return nil
	}

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	// The title is everything positional, so quoting is optional:
	// `specforge create Login Flow` and `specforge create "Login Flow"`
	// both work.
	title := strings.TrimSpace(strings.Join(flagSet.Args(), " "))

	f, err := store.Create(title, *tierLevel)
	if err != nil {
		return err
	}

	o.Println(f.DirName())

	return nil
}

func printCreateHelp(o *IO) {
	o.Println("Usage: specforge create <title> [options]")
	o.Println()
	o.Println("Create a new feature. Allocates the next feature number, scaffolds")
	o.Println("the specification document at the starting tier, and prints the")
	o.Println("feature directory name.")
	o.Println()
	o.Println("Options:")
	o.Println("  -t, --tier=N    Starting tier [default: 1]")
}
