// Package cmd implements symkern-demo's command surface, grounded on
// kornnellio-runc-Go's cmd package: a package-level rootCmd, flags as
// package vars wired in init, and an exported Execute entry point.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "symkern-demo",
	Short:         "Boot a kernel core and script an end-to-end scenario",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
