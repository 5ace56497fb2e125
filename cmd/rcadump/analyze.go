package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnnyboystargaze031/qsharp/fir/firyaml"
	"github.com/johnnyboystargaze031/qsharp/rca"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <fir.yaml>",
	Short: "Compute and print applications tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := firyaml.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Println(rca.Analyze(store))
		return nil
	},
}
