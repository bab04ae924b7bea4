// Package cli implements the fuelctl commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
)

// ReconcileCmd returns the reconcile command
func ReconcileCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "reconcile <shift.json>",
		Short: "Show the figures of a shift file",
		Long: `Reconcile a shift saved as JSON and print per-product sales, cashier
totals and the ledger distribution.

Examples:
  fuelctl reconcile shift-812.json
  fuelctl reconcile shift-812.json --catalog station-4.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readShiftFile(args[0])
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
			displayReconciliation(cmd.OutOrStdout(), rec, cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Station catalog JSON for names")
	return cmd
}

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	var (
		catalogPath string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "validate <shift.json>",
		Short: "Check whether a shift file can be closed",
		Long: `Run every close rule against a shift file and list what blocks it.
Exits non-zero when the shift cannot be closed.

Examples:
  fuelctl validate shift-812.json
  fuelctl validate shift-812.json --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readShiftFile(args[0])
			if err != nil {
				return err
			}
			cat, err := readCatalogFile(catalogPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, err = shift.ValidateForClose(*s, cat, shift.CloseOptions{StrictCollection: strict})
			var closeErr *shift.CloseError
			if errors.As(err, &closeErr) {
				fmt.Fprintf(out, "%s shift %s cannot be closed:\n", color.New(color.FgRed).Sprint("✗"), s.ID)
				for _, is := range closeErr.Issues {
					fmt.Fprintf(out, "  %s %s\n", color.New(color.FgYellow).Sprintf("[%s]", is.Code), is.Message)
				}
				cmd.SilenceUsage = true
				return fmt.Errorf("%d issue(s)", len(closeErr.Issues))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s shift %s is ready to close\n", color.New(color.FgGreen).Sprint("✓"), s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Station catalog JSON for names")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject a collected amount that differs from the main ledger")
	return cmd
}

func readShiftFile(path string) (*shift.SalesShift, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shift file: %w", err)
	}
	return factory.ParseShift(data)
}

// readCatalogFile returns an empty catalog when path is empty.
func readCatalogFile(path string) (shift.Catalog, error) {
	if path == "" {
		return shift.Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return shift.Catalog{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return factory.ParseCatalog(data)
}

func displayReconciliation(out io.Writer, rec shift.Reconciliation, cat shift.Catalog) {
	fmt.Fprintln(out, "Products:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  PRODUCT\tSOLD\tADJUSTED\tPRICE\tAMOUNT\tVOUCHERS")
	fmt.Fprintln(w, "  -------\t----\t--------\t-----\t------\t--------")
	for _, p := range rec.Products {
		price := p.Price.StringFixed(2)
		if !p.PriceKnown {
			price = color.New(color.FgRed).Sprint("none")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			cat.ProductName(p.ProductID),
			p.PumpSoldQty.StringFixed(3),
			p.AdjustedQty.StringFixed(3),
			price,
			p.Amount.StringFixed(2),
			p.VoucherQty.StringFixed(3),
		)
	}
	w.Flush()
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Cashiers:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  CASHIER\tSALES\tADJUSTMENTS\tVOUCHERS\tOTHER\tEXPECTED")
	fmt.Fprintln(w, "  -------\t-----\t-----------\t--------\t-----\t--------")
	for _, c := range rec.Cashiers {
		id := string(c.CashierID)
		if id == "" {
			id = "(unassigned)"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			c.SalesAmount.StringFixed(2),
			c.AdjustmentAmount.StringFixed(2),
			c.VoucherAmount.StringFixed(2),
			c.OtherAmount.StringFixed(2),
			c.ExpectedCash.StringFixed(2),
		)
	}
	w.Flush()
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Distribution:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range rec.Distributions {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", cat.LedgerName(d.LedgerID), d.Kind, d.Amount.StringFixed(2))
	}
	w.Flush()
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total products:\t%s\n", rec.TotalProductsAmount.StringFixed(2))
	fmt.Fprintf(w, "Total vouchers:\t%s\n", rec.TotalVoucherAmount.StringFixed(2))
	fmt.Fprintf(w, "Other transactions:\t%s\n", rec.TotalOtherTransactions.StringFixed(2))
	fmt.Fprintf(w, "Cash remaining:\t%s\n", rec.CashRemaining.StringFixed(2))
	fmt.Fprintf(w, "Main ledger:\t%s\n", rec.MainLedgerAmount.StringFixed(2))
	if rec.Shortfall.IsPositive() {
		fmt.Fprintf(w, "Over-allocated by:\t%s\n", color.New(color.FgRed).Sprint(rec.Shortfall.StringFixed(2)))
	}
	if rec.CollectedAmount != nil {
		fmt.Fprintf(w, "Collected:\t%s\n", rec.CollectedAmount.StringFixed(2))
		fmt.Fprintf(w, "Variance:\t%s\n", varianceColor(rec).Sprint(rec.Variance.StringFixed(2)))
	}
	w.Flush()

	if rec.Balanced {
		fmt.Fprintln(out, color.New(color.FgGreen).Sprint("Balanced"))
	} else {
		fmt.Fprintln(out, color.New(color.FgRed).Sprint("Not balanced"))
	}
	for _, warn := range rec.Warnings {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), warn.Message)
	}
}

func varianceColor(rec shift.Reconciliation) *color.Color {
	if rec.CollectionBalanced() {
		return color.New(color.FgGreen)
	}
	return color.New(color.FgYellow)
}
