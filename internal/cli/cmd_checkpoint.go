package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/specforge/specforge/internal/feature"
)

const checkpointHelp = `  checkpoint <feature>   Snapshot the current document
    -m, --message          Checkpoint description (prompted when omitted)`

var errDescriptionRequired = errors.New("checkpoint description is required")

func cmdCheckpoint(o *IO, in io.Reader, store *feature.Store, args []string) error {
	flagSet := flag.NewFlagSet("checkpoint", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})

	message := flagSet.StringP("message", "m", "", "Checkpoint description")

	if hasHelpFlag(args) {
		o.Println("Usage: specforge checkpoint <feature> [-m <description>]")
		o.Println()
		o.Println("Snapshot the feature's current document into its checkpoint store.")
		o.Println("Prompts for a description when -m is omitted.")

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

	description := *message
	if !flagSet.Changed("message") {
		description, err = promptDescription(in)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(description) == "" {
		return errDescriptionRequired
	}

	id, err := store.Checkpoint(f, description)
	if err != nil {
		return err
	}

	o.Println(id)

	return nil
}

// promptDescription asks for a checkpoint description: readline-style when
// reading the real stdin (liner degrades gracefully on pipes), a plain line
// read otherwise (tests inject their own reader).
func promptDescription(in io.Reader) (string, error) {
	if in == os.Stdin {
		state := liner.NewLiner()
		defer state.Close()

		state.SetCtrlCAborts(true)

		line, err := state.Prompt("description> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return "", errDescriptionRequired
			}

			return "", err
		}

		return line, nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}

		return "", errDescriptionRequired
	}

	return scanner.Text(), nil
}
