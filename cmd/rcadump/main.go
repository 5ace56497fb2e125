// Command rcadump loads a FIR package store from a YAML file, runs the
// runtime capability analysis over it, and prints the results.
//
// Usage:
//
//	rcadump analyze fir.yaml
//	rcadump cycles fir.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rcadump:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rcadump",
	Short: "Runtime capability analysis over a FIR package store",
	Long: `rcadump runs the runtime capability analysis over a FIR package
store serialized as YAML and prints the computed applications tables
or the detected call-graph cycles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(cyclesCmd)
}
