// PDF Merge - command-line, terminal and desktop client for a PDF merge service.
//
// - No args + display available → desktop window
// - No args + no display → CLI help
// - --gui → desktop window
// - --cli → CLI mode (force)
// - CLI subcommands/flags → CLI mode
package main

import (
	"os"
	"slices"

	"github.com/rescale/pdfmerge/internal/cli"
	"github.com/rescale/pdfmerge/internal/gui"
	"github.com/rescale/pdfmerge/internal/version"
)

func main() {
	// Propagate version from the single source of truth (internal/version)
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	args := os.Args[1:]
	if isCLIMode(args, gui.HasDisplay()) {
		args = withoutModeFlags(args)
	} else {
		args = append([]string{"gui"}, withoutModeFlags(args)...)
	}

	if err := cli.ExecuteWith(args, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// isCLIMode determines whether to run in CLI mode based on arguments and
// whether a display is available.
//
// CLI mode when:
// - --cli flag is present (force CLI mode)
// - any subcommand or flag is present
// - no display is available
//
// Desktop mode when:
// - --gui flag is present
// - no arguments and a display is available
func isCLIMode(args []string, hasDisplay bool) bool {
	if slices.Contains(args, "--cli") {
		return true
	}
	if slices.Contains(args, "--gui") {
		return false
	}
	if len(args) > 0 {
		return true
	}
	return !hasDisplay
}

// withoutModeFlags strips --cli and --gui, which cobra does not know.
func withoutModeFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--cli" && a != "--gui" {
			out = append(out, a)
		}
	}
	return out
}
