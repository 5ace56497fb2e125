package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnnyboystargaze031/qsharp/fir"
	"github.com/johnnyboystargaze031/qsharp/fir/firyaml"
	"github.com/johnnyboystargaze031/qsharp/rca"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles <fir.yaml>",
	Short: "Detect and print call-graph cycles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := firyaml.Load(args[0])
		if err != nil {
			return err
		}
		for pkgID, pkg := range store.Packages {
			if pkg == nil {
				continue
			}
			cycled := rca.DetectCycles(fir.PackageID(pkgID), pkg)
			fmt.Printf("Package %d: %d cycled callables\n", pkgID, len(cycled))
			for _, c := range cycled {
				fmt.Println("   ", c)
			}
		}
		return nil
	},
}
