package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/tier"
)

const schemaFileName = "specforge.schema.yaml"

// configTemplate is JWCC: comments survive in the written file.
const configTemplate = `{
	// Directory holding one subdirectory per feature.
	"specs_dir": %q,

	// Days of checkpoint history kept by cleanup.
	"retention_days": %d,
%s}
`

func cmdInit(o *IO, cfg feature.Config, args []string) error {
	flagSet := flag.NewFlagSet("init", flag.ContinueOnError)
	flagSet.SetOutput(&strings.Builder{})

	withSchema := flagSet.Bool("schema", false, "Also write an editable tier schema file")

	if hasHelpFlag(args) {
		o.Println("Usage: specforge init [--schema]")
		o.Println()
		o.Println("Write a " + feature.ConfigFileName + " into the working directory.")
		o.Println("With --schema, also write the default tier schema as an editable")
		o.Println("file and point the config at it. Existing files are left alone.")

		return nil
	}

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	configPath := filepath.Join(cfg.EffectiveCwd, feature.ConfigFileName)

	_, statErr := os.Stat(configPath)
	if statErr == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	schemaLine := ""

	if *withSchema {
		schemaPath := filepath.Join(cfg.EffectiveCwd, schemaFileName)

		_, statErr = os.Stat(schemaPath)
		if statErr != nil {
			err = atomic.WriteFile(schemaPath, strings.NewReader(string(tier.DefaultYAML())))
			if err != nil {
				return fmt.Errorf("writing %s: %w", schemaPath, err)
			}

			o.Println("wrote", schemaPath)
		}

		schemaLine = fmt.Sprintf("\n\t// Tier schema override.\n\t\"schema_path\": %q,\n", schemaFileName)
	}

	content := fmt.Sprintf(configTemplate, cfg.SpecsDir, cfg.RetentionDays, schemaLine)

	err = atomic.WriteFile(configPath, strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	o.Println("wrote", configPath)

	err = os.MkdirAll(cfg.SpecsDirAbs, 0o755)
	if err != nil {
		return fmt.Errorf("creating specs dir %s: %w", cfg.SpecsDirAbs, err)
	}

	return nil
}
