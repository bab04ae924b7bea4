package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/fuel-station/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fuelctl",
		Short: "fuelctl - Fuel station shift tools",
		Long: `fuelctl reconciles, validates and exports sales shifts saved as JSON,
and reads shift data from the station backend.`,
		SilenceUsage: true,
	}

	// Shift files
	rootCmd.AddCommand(cli.ReconcileCmd())
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.ExportCmd())

	// Backend
	rootCmd.AddCommand(cli.ShiftsCmd())
	rootCmd.AddCommand(cli.ReadingsCmd())
	rootCmd.AddCommand(cli.StationsCmd())
	rootCmd.AddCommand(cli.DippingsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
