package feature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func Test_LoadConfig_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()

	cfg, err := LoadConfig(LoadConfigInput{WorkDirOverride: tmp, Env: map[string]string{}})
	require.NoError(t, err)

	require.Equal(t, "specs", cfg.SpecsDir)
	require.Equal(t, 30, cfg.RetentionDays)
	require.Equal(t, tmp, cfg.EffectiveCwd)
	require.Equal(t, filepath.Join(tmp, "specs"), cfg.SpecsDirAbs)
	require.Empty(t, cfg.Sources.Global)
	require.Empty(t, cfg.Sources.Project)
}

func Test_LoadConfig_Project_File_Overrides_Global(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	xdg := filepath.Join(tmp, "xdg")
	work := filepath.Join(tmp, "work")

	writeFile(t, filepath.Join(xdg, "specforge", "config.json"), `{
		// global defaults
		"specs_dir": "global-specs",
		"retention_days": 7,
	}`)
	writeFile(t, filepath.Join(work, ConfigFileName), `{"specs_dir": "project-specs"}`)

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: work,
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
	})
	require.NoError(t, err)

	// Project wins for specs_dir; global's retention survives unmerged keys.
	require.Equal(t, "project-specs", cfg.SpecsDir)
	require.Equal(t, 7, cfg.RetentionDays)
	require.Equal(t, filepath.Join(work, "project-specs"), cfg.SpecsDirAbs)
	require.Equal(t, filepath.Join(xdg, "specforge", "config.json"), cfg.Sources.Global)
	require.Equal(t, filepath.Join(work, ConfigFileName), cfg.Sources.Project)
}

func Test_LoadConfig_Explicit_File_Must_Exist(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()

	_, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: tmp,
		ConfigPath:      "nope.json",
		Env:             map[string]string{},
	})
	require.ErrorIs(t, err, ErrConfigFileNotFound)
}

func Test_LoadConfig_CLI_Override_Beats_Config_Files(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	writeFile(t, filepath.Join(work, ConfigFileName), `{"specs_dir": "from-file"}`)

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride:  work,
		SpecsDirOverride: "from-flag",
		Env:              map[string]string{},
	})
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.SpecsDir)
}

func Test_LoadConfig_Empty_Specs_Dir_Falls_Back_To_Default(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	writeFile(t, filepath.Join(work, ConfigFileName), `{"specs_dir": ""}`)

	cfg, err := LoadConfig(LoadConfigInput{WorkDirOverride: work, Env: map[string]string{}})

	// An empty value in the file falls back to the default rather than
	// producing an unusable config.
	require.NoError(t, err)
	require.Equal(t, "specs", cfg.SpecsDir)
}

func Test_LoadConfig_Rejects_Malformed_File(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	writeFile(t, filepath.Join(work, ConfigFileName), `{"specs_dir": `)

	_, err := LoadConfig(LoadConfigInput{WorkDirOverride: work, Env: map[string]string{}})
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func Test_LoadConfig_Resolves_Relative_Schema_Path(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	writeFile(t, filepath.Join(work, ConfigFileName), `{"schema_path": "tiers.yaml"}`)

	cfg, err := LoadConfig(LoadConfigInput{WorkDirOverride: work, Env: map[string]string{}})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(work, "tiers.yaml"), cfg.SchemaPath)
}
