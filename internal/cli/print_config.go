package cli

import (
	"encoding/json"
	"fmt"

	"github.com/specforge/specforge/internal/feature"
)

func cmdPrintConfig(o *IO, cfg feature.Config, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: specforge print-config")
		o.Println()
		o.Println("Show the resolved configuration and where it came from.")

		return nil
	}

	formatted, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	o.Println(string(formatted))

	o.Println()
	o.Println("# Resolved paths:")
	o.Println("#   cwd:", cfg.EffectiveCwd)
	o.Println("#   specs:", cfg.SpecsDirAbs)

	o.Println("# Sources:")

	if cfg.Sources.Global != "" {
		o.Println("#   global:", cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		o.Println("#   project:", cfg.Sources.Project)
	}

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("#   (using defaults only)")
	}

	return nil
}
