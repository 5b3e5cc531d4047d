// Package main is the entry point for the sndedup CLI.
package main

import (
	"os"

	"github.com/leeovery/sndedup/internal/cli"
	"github.com/leeovery/sndedup/internal/picker/fynepicker"
)

func main() {
	app := &cli.App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Picker: fynepicker.Dialog{},
	}

	os.Exit(app.Run(os.Args))
}
