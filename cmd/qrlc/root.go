package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nota-dev/qrlc/internal/exitcode"
)

var rootCmd = &cobra.Command{
	Use:   "qrlc",
	Short: "Extract lazy-loadable segments from $-marked closures",
	Long: `qrlc finds every $-marked closure in a source tree, lifts each one
into its own module, and rewrites the call site to a deferred QRL
reference, the same transform a Qwik optimizer applies ahead of a
bundler pass.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

// Execute runs the root command and exits with the error's mapped code
// (internal/exitcode.Get), the same convention the teacher's own CLI uses.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(exitcode.Get(err))
	}
}
