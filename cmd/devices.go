package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/photoprep/internal/gpu"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available OpenCL platforms and devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms, err := gpu.EnumeratePlatforms()
		if err != nil {
			return err
		}
		if len(platforms) == 0 {
			fmt.Println("No OpenCL platforms found")
			return nil
		}

		for i, p := range platforms {
			fmt.Printf("Platform %d: %s (%s, %s)\n", i, p.Name, p.Vendor, p.Version)
			for j, d := range p.Devices {
				fmt.Printf("  Device %d: %s [%s] %s, %d compute units\n",
					j, d.Name, d.Type, d.Vendor, d.MaxComputeUnits)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
