package cli

import (
	"fmt"
	"io"
)

// flagInfo describes a single command flag for help output.
type flagInfo struct {
	Name string // "--order"
	Arg  string // "<first-seen|source|key>", "" for bool
	Desc string
}

// commandInfo describes a command for help output.
type commandInfo struct {
	Name        string
	Summary     string // one-line for top-level listing
	Usage       string
	Description string
	Flags       []flagInfo
}

// commands is the ordered registry of all sndedup commands.
var commands = []commandInfo{
	{
		Name:    "clean",
		Summary: "Keep the highest-scoring row per SN (default command)",
		Usage:   "sndedup clean [flags] [FILE]",
		Description: "Reads FILE (or the file picked in the open dialog), keeps one row per\n" +
			"distinct SN, the one with the highest 'Scan Count', and writes the\n" +
			"result next to the input as <name>_cleaned.xlsx. Ties and rows without\n" +
			"a numeric score keep the first row seen. Settings are read from\n" +
			"sndedup.yaml next to the input when present.",
		Flags: []flagInfo{
			{"--input", "<file>", "Input file; skips the open dialog"},
			{"--output", "<file>", "Output file (default: <name>_cleaned.xlsx)"},
			{"--config", "<file>", "Config file (default: sndedup.yaml next to the input)"},
			{"--order", "<first-seen|source|key>", "Order of kept rows (default: first-seen)"},
			{"--metrics-file", "<file>", "Write Prometheus run metrics to this file"},
			{"--no-progress", "", "Hide progress bars"},
		},
	},
	{
		Name:        "version",
		Summary:     "Print the sndedup version",
		Usage:       "sndedup version",
		Description: "Prints the version of this binary.",
	},
	{
		Name:        "help",
		Summary:     "Show help for a command",
		Usage:       "sndedup help [<command>]",
		Description: "Shows usage information. With no argument, lists all commands.\nWith a command name, shows detailed help for that command.",
	},
}

// runHelp prints top-level help or help for one command.
func (a *App) runHelp(args []string) error {
	if len(args) == 0 {
		printTopLevelHelp(a.Stdout)
		return nil
	}
	cmd := findCommand(args[0])
	if cmd == nil {
		return usageErrorf("Unknown command '%s'. Run 'sndedup help' for usage.", args[0])
	}
	printCommandHelp(a.Stdout, cmd)
	return nil
}

// findCommand returns the commandInfo for the given name, or nil.
func findCommand(name string) *commandInfo {
	for i := range commands {
		if commands[i].Name == name {
			return &commands[i]
		}
	}
	return nil
}

// printTopLevelHelp writes the full command listing to w.
func printTopLevelHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: sndedup [global flags] [command] [flags] [FILE]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-14s%s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprintln(w, "  --quiet, -q     Print only the output path and errors")
	fmt.Fprintln(w, "  --verbose, -v   Show debug information")
	fmt.Fprintln(w, "  --toon          TOON summary")
	fmt.Fprintln(w, "  --pretty        Human-readable summary (default)")
	fmt.Fprintln(w, "  --json          JSON summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'sndedup help <command>' for detailed help on a command.")
}

// printCommandHelp writes detailed help for a single command to w.
func printCommandHelp(w io.Writer, cmd *commandInfo) {
	fmt.Fprintf(w, "Usage: %s\n", cmd.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, cmd.Description)

	if len(cmd.Flags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		for _, f := range cmd.Flags {
			label := f.Name
			if f.Arg != "" {
				label += " " + f.Arg
			}
			fmt.Fprintf(w, "  %-32s%s\n", label, f.Desc)
		}
	}
}
