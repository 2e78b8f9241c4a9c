// Command quickstrom drives the interpreter/browser session protocol
// described in internal/session, replacing the teacher's ~90-subcommand
// browser-automation CLI with the single `check` entrypoint this
// specification calls for.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/process"
)

var version = "dev"

func main() {
	process.SetupSignalHandler()

	progName := filepath.Base(os.Args[0])

	rootCmd := &cobra.Command{
		Use:     progName,
		Short:   "Property-based browser testing driver",
		Version: version,
	}
	rootCmd.SetVersionTemplate(progName + " v{{.Version}}\n")

	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
	log.Sync()
}
