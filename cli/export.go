package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/fuel-station/export"
	"github.com/warp/fuel-station/shift"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	var (
		catalogPath string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export <xlsx|excel|pdf> <shift.json>",
		Short: "Render a shift file as a workbook or PDF",
		Long: `Render the reconciliation of a shift file.

Examples:
  fuelctl export xlsx shift-812.json --catalog station-4.json
  fuelctl export pdf shift-812.json -o report.pdf`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"xlsx", "excel", "pdf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(args[0])
			var render func(io.Writer, shift.SalesShift, shift.Reconciliation, shift.Catalog) error
			switch format {
			case "xlsx", "excel":
				format, render = "xlsx", export.WriteShiftWorkbook
			case "pdf":
				render = export.ShiftPDF
			default:
				return fmt.Errorf("unknown format %q (expected xlsx or pdf)", args[0])
			}

			s, err := readShiftFile(args[1])
			if err != nil {
				return err
			}
			cat, err := readCatalogFile(catalogPath)
			if err != nil {
				return err
			}
			rec, err := shift.Reconcile(shift.InputFromShift(*s))
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("shift-%s.%s", s.ID, format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := render(f, *s, rec, cat); err != nil {
				f.Close()
				return fmt.Errorf("failed to render %s: %w", format, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", color.New(color.FgGreen).Sprint("✓"), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Station catalog JSON for names")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default shift-<id>.<format>)")
	return cmd
}
