// Package cli implements the sndedup command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/leeovery/sndedup/internal/picker"
	"github.com/leeovery/sndedup/internal/schema"
	"github.com/leeovery/sndedup/internal/tableio"
)

// Version is set at build time.
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// App is the sndedup CLI application.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	// Picker asks for the input file when none is given on the command line.
	// Nil makes a missing input a usage error.
	Picker picker.Picker
	// Now replaces time.Now when set.
	Now func() time.Time
}

// globalFlags holds the flags accepted before or after the subcommand.
type globalFlags struct {
	Quiet   bool
	Verbose bool
	Toon    bool
	Pretty  bool
	JSON    bool
}

// usageError is a command-line mistake; it exits with ExitUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// Run parses args and dispatches the subcommand. args[0] is the program
// name. Returns the process exit code.
func (a *App) Run(args []string) int {
	started := a.now()

	var globals globalFlags
	subcmd, rest := parseGlobalFlags(args[1:], &globals)

	var err error
	switch subcmd {
	case "", "clean":
		err = a.runClean(rest, globals, started)
	case "version":
		fmt.Fprintf(a.Stdout, "sndedup version %s\n", Version)
	case "help":
		err = a.runHelp(rest)
	default:
		if filepath.Ext(subcmd) == "" {
			err = usageErrorf("Unknown command '%s'. Run 'sndedup help' for usage.", subcmd)
			break
		}
		// A bare file path runs clean on it.
		err = a.runClean(append([]string{subcmd}, rest...), globals, started)
	}

	return a.exit(err)
}

// exit prints err as a single ERROR line and maps it to an exit code.
func (a *App) exit(err error) int {
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(a.Stderr, "ERROR: %s\n", errorMessage(err))

	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// errorMessage renders err the way the user sees it.
func errorMessage(err error) string {
	var (
		se  *schema.SchemaError
		fe  *tableio.FormatError
		ioe *tableio.IOError
		we  *tableio.WriteError
	)
	switch {
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &fe):
		return "Failed to read input: " + fe.Error()
	case errors.As(err, &ioe):
		return "Failed to read input: " + ioe.Error()
	case errors.As(err, &we):
		return "Failed to write output: " + we.Error()
	default:
		return err.Error()
	}
}

// parseGlobalFlags pulls global flags out of args and returns the first
// remaining word as the subcommand. Everything else is passed through in
// order.
func parseGlobalFlags(args []string, g *globalFlags) (subcmd string, remaining []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if applyGlobalFlag(arg, g) {
			continue
		}
		if subcmd == "" && !strings.HasPrefix(arg, "-") {
			subcmd = arg
			continue
		}
		remaining = append(remaining, arg)
		if valueFlags[arg] && i+1 < len(args) {
			i++
			remaining = append(remaining, args[i])
		}
	}
	return subcmd, remaining
}

func applyGlobalFlag(arg string, g *globalFlags) bool {
	switch arg {
	case "--quiet", "-q":
		g.Quiet = true
	case "--verbose", "-v":
		g.Verbose = true
	case "--toon":
		g.Toon = true
	case "--pretty":
		g.Pretty = true
	case "--json":
		g.JSON = true
	default:
		return false
	}
	return true
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
