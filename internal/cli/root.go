// Package cli wires the formgate commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formgate",
	Short: "Entry validation gate for form-filling requests",
	Long: "Validates form and instance locators before they reach the form filler:\n" +
		"project match, locator type, record and file existence, encryption state.\n" +
		"The first failing check ends the flow with a terminal error.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
