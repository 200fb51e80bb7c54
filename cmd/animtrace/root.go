package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "animtrace",
	Short: "animtrace produces network animation traces from simulations.",
	Long: `animtrace correlates transmit and receive events of a simulated ` +
		`network and serializes them into a trace consumable by an external ` +
		`visualization tool.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional defaults, e.g. ANIMTRACE_OUTPUT.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
