package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSpecsDirEmpty      = errors.New("specs_dir cannot be empty")
)

// ConfigFileName is the default project config file name. Config files are
// JWCC (JSON with comments and trailing commas).
const ConfigFileName = ".specforge.json"

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	SpecsDir           string `json:"specs_dir"`
	SchemaPath         string `json:"schema_path,omitempty"`
	LockTimeoutMS      int    `json:"lock_timeout_ms,omitempty"`
	MaxCheckpointBytes int64  `json:"max_checkpoint_bytes,omitempty"`
	RetentionDays      int    `json:"retention_days,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"` // absolute working directory
	SpecsDirAbs  string `json:"-"` // absolute path to the specs directory

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to the global config if loaded
	Project string // path to the project or explicit config if loaded
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SpecsDir:      "specs",
		RetentionDays: 30,
	}
}

// CounterPath returns the project's feature counter file. The sibling
// ".lock" file is managed by the allocator.
func (c Config) CounterPath() string {
	return filepath.Join(c.SpecsDirAbs, ".counter")
}

// LoadConfigInput holds the inputs for [LoadConfig].
type LoadConfigInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; empty means os.Getwd()
	ConfigPath       string            // -c/--config flag value
	SpecsDirOverride string            // --specs-dir flag value; empty means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// defaults, global user config ($XDG_CONFIG_HOME/specforge/config.json or
// ~/.config/specforge/config.json), project config (.specforge.json),
// explicit config file, CLI overrides. All paths in the returned Config are
// resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if input.SpecsDirOverride != "" {
		cfg.SpecsDir = input.SpecsDirOverride
	}

	if cfg.SpecsDir == "" {
		return Config{}, ErrSpecsDirEmpty
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.SpecsDir) {
		cfg.SpecsDirAbs = cfg.SpecsDir
	} else {
		cfg.SpecsDirAbs = filepath.Join(workDir, cfg.SpecsDir)
	}

	if cfg.SchemaPath != "" && !filepath.IsAbs(cfg.SchemaPath) {
		cfg.SchemaPath = filepath.Join(workDir, cfg.SchemaPath)
	}

	return cfg, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/specforge/config.json if set,
// otherwise ~/.config/specforge/config.json. Empty if neither resolves.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "specforge", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "specforge", "config.json")
	}

	return ""
}

func loadGlobalConfig(env map[string]string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

// loadProjectConfig loads .specforge.json from the work dir, or the explicit
// config file if one was given (which must then exist).
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	cfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, cfgFile, nil
}

// loadConfigFile loads one config file. A missing file is not an error
// unless mustExist is set.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: cannot read %s: %v", ErrConfigInvalid, path, err)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JWCC to plain JSON.
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWCC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.SpecsDir != "" {
		base.SpecsDir = overlay.SpecsDir
	}

	if overlay.SchemaPath != "" {
		base.SchemaPath = overlay.SchemaPath
	}

	if overlay.LockTimeoutMS != 0 {
		base.LockTimeoutMS = overlay.LockTimeoutMS
	}

	if overlay.MaxCheckpointBytes != 0 {
		base.MaxCheckpointBytes = overlay.MaxCheckpointBytes
	}

	if overlay.RetentionDays != 0 {
		base.RetentionDays = overlay.RetentionDays
	}

	return base
}
