package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/fs"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Flag parsing errors.
var (
	ErrFlagRequiresArg = errors.New("flag requires an argument")
	ErrUnknownFlag     = errors.New("unknown flag")
)

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	cmdArgs := flags.remaining[1:]

	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	cfg, err := feature.LoadConfig(feature.LoadConfigInput{
		WorkDirOverride:  flags.workDir,
		ConfigPath:       flags.configPath,
		SpecsDirOverride: flags.specsDir,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	ioCtx := NewIO(out, errOut)

	// init and print-config work on config alone, before a store exists.
	switch cmd {
	case "init":
		return finish(ioCtx, cmdInit(ioCtx, cfg, cmdArgs))
	case "print-config":
		return finish(ioCtx, cmdPrintConfig(ioCtx, cfg, cmdArgs))
	}

	store, err := feature.NewStore(cfg, fs.NewReal())
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	var cmdErr error

	switch cmd {
	case "create":
		cmdErr = cmdCreate(ioCtx, store, cmdArgs)
	case "show":
		cmdErr = cmdShow(ioCtx, store, cmdArgs)
	case "ls":
		cmdErr = cmdLs(ioCtx, store, cmdArgs)
	case "expand":
		cmdErr = cmdExpand(ioCtx, store, cmdArgs)
	case "progress":
		cmdErr = cmdProgress(ioCtx, store, cmdArgs)
	case "checkpoint":
		cmdErr = cmdCheckpoint(ioCtx, in, store, cmdArgs)
	case "checkpoints":
		cmdErr = cmdCheckpoints(ioCtx, store, cmdArgs)
	case "restore":
		cmdErr = cmdRestore(ioCtx, store, cmdArgs)
	case "cleanup":
		cmdErr = cmdCleanup(ioCtx, store, cmdArgs)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}

	return finish(ioCtx, cmdErr)
}

func finish(o *IO, err error) int {
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

type globalFlags struct {
	workDir    string
	configPath string
	specsDir   string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a global flag at args[idx]. Returns the number of
// args consumed (0 if not a global flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --specs-dir flag
	if arg == "--specs-dir" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.specsDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--specs-dir="); ok {
		flags.specsDir = after

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", ErrUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(writer io.Writer) {
	fprintln(writer, `specforge - tiered specification lifecycle store

Usage: specforge [options] <command> [args]

Options:
  -C, --cwd <dir>      Run as if started in <dir>
  -c, --config <file>  Use specified config file
  --specs-dir <dir>    Override the specs directory

Commands:`)
	fprintln(writer, `  init                   Create .specforge.json (and optionally a schema file)`)
	fprintln(writer, createHelp)
	fprintln(writer, `  show <feature>         Print a feature's specification document`)
	fprintln(writer, `  ls                     List features with tier and progress`)
	fprintln(writer, expandHelp)
	fprintln(writer, `  progress <feature>     Show section-by-section completion`)
	fprintln(writer, checkpointHelp)
	fprintln(writer, `  checkpoints <feature>  List a feature's checkpoints`)
	fprintln(writer, `  restore <feature> <id> Restore a checkpoint (takes a safety checkpoint first)`)
	fprintln(writer, cleanupHelp)
	fprintln(writer, `  print-config           Show resolved configuration`)
}
