package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI drives Run the way main does, with an isolated working directory.
func runCLI(t *testing.T, dir, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut strings.Builder

	argv := append([]string{"specforge", "-C", dir}, args...)
	code := Run(strings.NewReader(stdin), &out, &errOut, argv, map[string]string{})

	return code, out.String(), errOut.String()
}

func Test_Run_Prints_Usage_Without_Arguments(t *testing.T) {
	t.Parallel()

	var out, errOut strings.Builder

	code := Run(strings.NewReader(""), &out, &errOut, []string{"specforge"}, map[string]string{})
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "Usage: specforge")
	require.Contains(t, out.String(), "expand <feature>")
}

func Test_Run_Rejects_Unknown_Command_And_Flag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "frobnicate")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown command: frobnicate")

	code, _, errOut = runCLI(t, dir, "", "--bogus", "ls")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown flag")
}

func Test_Init_Writes_Config_Once(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, out, _ := runCLI(t, dir, "", "init")
	require.Equal(t, 0, code)
	require.Contains(t, out, ".specforge.json")

	raw, err := os.ReadFile(filepath.Join(dir, ".specforge.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"specs_dir": "specs"`)

	code, _, errOut := runCLI(t, dir, "", "init")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "already exists")
}

func Test_Init_With_Schema_Writes_Editable_Schema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, _ := runCLI(t, dir, "", "init", "--schema")
	require.Equal(t, 0, code)

	raw, err := os.ReadFile(filepath.Join(dir, schemaFileName))
	require.NoError(t, err)
	require.Contains(t, string(raw), "tiers:")

	cfgRaw, err := os.ReadFile(filepath.Join(dir, ".specforge.json"))
	require.NoError(t, err)
	require.Contains(t, string(cfgRaw), `"schema_path": "specforge.schema.yaml"`)

	// The written pair is immediately usable.
	code, out, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "0001-login\n", out)
}

func Test_Create_Show_Ls_Round_Trip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, out, errOut := runCLI(t, dir, "", "create", "Login", "Flow")
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "0001-login-flow\n", out)

	code, out, _ = runCLI(t, dir, "", "show", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "# Login Flow")
	require.Contains(t, out, "## What")

	code, out, _ = runCLI(t, dir, "", "ls")
	require.Equal(t, 0, code)
	require.Contains(t, out, "0001-login-flow")
	require.Contains(t, out, "tier 1")
}

func Test_Create_Requires_Title(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "title is required")
}

func Test_Expand_Then_Progress_Then_Restore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, dir, "", "expand", "login")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "expanded to tier 2")

	code, out, _ = runCLI(t, dir, "", "progress", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "tier 2 (standard)")
	require.Contains(t, out, "user_stories")
	require.Contains(t, out, `fill in the "what" section`)

	// The expansion left a checkpoint; restoring it brings tier 1 back.
	code, out, _ = runCLI(t, dir, "", "checkpoints", "1")
	require.Equal(t, 0, code)

	id := strings.Fields(out)[0]

	code, out, errOut = runCLI(t, dir, "", "restore", "1", id)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "restored "+id)

	code, out, _ = runCLI(t, dir, "", "show", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "tier: 1")
}

func Test_Expand_Rejects_Tier_Skip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	code, _, errOut = runCLI(t, dir, "", "expand", "1", "--to", "3")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "exactly one tier above")
}

func Test_Checkpoint_With_Message_Flag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, dir, "", "checkpoint", "1", "-m", "first draft")
	require.Equal(t, 0, code, errOut)

	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	code, out, _ = runCLI(t, dir, "", "checkpoints", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, id)
	require.Contains(t, out, "first draft")
}

func Test_Checkpoint_Prompts_For_Missing_Message(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, dir, "prompted description\n", "checkpoint", "1")
	require.Equal(t, 0, code, errOut)
	require.NotEmpty(t, strings.TrimSpace(out))

	code, out, _ = runCLI(t, dir, "", "checkpoints", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "prompted description")

	// An empty description is rejected.
	code, _, errOut = runCLI(t, dir, "   \n", "checkpoint", "1")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "description is required")
}

func Test_Cleanup_Reports_Deleted_Count(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	code, _, errOut = runCLI(t, dir, "", "checkpoint", "1", "-m", "x")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, dir, "", "cleanup", "1", "--older-than", "30")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "deleted 0 checkpoint(s)")
}

func Test_Show_Warns_On_Degraded_Metadata_With_Exit_Code_One(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "create", "Login")
	require.Equal(t, 0, code, errOut)

	specPath := filepath.Join(dir, "specs", "0001-login", "spec.md")

	raw, err := os.ReadFile(specPath)
	require.NoError(t, err)

	mangled := strings.Replace(string(raw), "progress: 0.00", "progress: banana", 1)
	require.NoError(t, os.WriteFile(specPath, []byte(mangled), 0o644))

	code, out, errOut := runCLI(t, dir, "", "show", "1")
	require.Equal(t, 1, code, "warnings must surface in the exit code")
	require.Contains(t, errOut, "warning:")
	require.Contains(t, errOut, "progress")
	require.Contains(t, out, "# Login", "document still printed despite warnings")
}

func Test_Print_Config_Shows_Sources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, out, _ := runCLI(t, dir, "", "print-config")
	require.Equal(t, 0, code)
	require.Contains(t, out, `"specs_dir": "specs"`)
	require.Contains(t, out, "(using defaults only)")

	code, _, _ = runCLI(t, dir, "", "init")
	require.Equal(t, 0, code)

	code, out, _ = runCLI(t, dir, "", "print-config")
	require.Equal(t, 0, code)
	require.Contains(t, out, "#   project:")
}

func Test_Specs_Dir_Global_Flag_Overrides_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "", "--specs-dir", "work", "create", "Login")
	require.Equal(t, 0, code, errOut)

	_, err := os.Stat(filepath.Join(dir, "work", "0001-login", "spec.md"))
	require.NoError(t, err)
}
