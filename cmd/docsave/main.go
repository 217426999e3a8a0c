package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/docsave/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	location   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "docsave",
		Short: "Save rendered specification documents as portable snapshots",
		Long: `docsave turns a live HTML document into self-contained snapshots.

The document is cloned, stripped of authoring-only markup and written out
as one of:

  • loose HTML5 (html)
  • strict XHTML5 (xhtml)
  • a form page posting the snapshot to an HTML diff service (diff)
  • a link to an EPUB 3 conversion service (epub)

Settings are read from docsave.json in the working directory or one of
its parents, or from the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to docsave.json")
	pf.StringVarP(&flags.location, "url", "u", "", "Address the document is published at")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		htmlCmd(flags),
		xhtmlCmd(flags),
		diffCmd(flags),
		epubCmd(flags),
		saveCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
