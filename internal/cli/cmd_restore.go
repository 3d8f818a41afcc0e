package cli

import (
	"errors"

	"github.com/specforge/specforge/internal/feature"
)

var errCheckpointIDRequired = errors.New("checkpoint id is required")

func cmdRestore(o *IO, store *feature.Store, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge restore <feature> <checkpoint-id>")
		o.Println()
		o.Println("Overwrite the feature's document with a checkpoint's content.")
		o.Println("The checkpoint is integrity-verified first, and the current")
		o.Println("document is checkpointed before being replaced, so a restore")
		o.Println("is always reversible.")

		return nil
	}

	if len(args) < 1 {
		return errFeatureRefRequired
	}

	if len(args) < 2 {
		return errCheckpointIDRequired
	}

	f, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	safetyID, err := store.Restore(f, args[1])
	if err != nil {
		return err
	}

	o.Printf("restored %s (safety checkpoint %s)\n", args[1], safetyID)

	return nil
}
