package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/fuel-station/backend"
	"github.com/warp/fuel-station/config"
	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
)

// backendFlags are shared by commands that talk to the backend.
type backendFlags struct {
	url     string
	station string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	f.registerURL(cmd)
	cmd.Flags().StringVar(&f.station, "station", "", "Station ID")
	cmd.MarkFlagRequired("station")
}

func (f *backendFlags) registerURL(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "backend", "", "Backend base URL (default BACKEND_URL)")
}

func (f *backendFlags) client() (*backend.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	base := cfg.BackendURL
	if f.url != "" {
		base = f.url
	}
	return backend.New(backend.Config{
		BaseURL: base,
		Timeout: cfg.BackendTimeout,
		Logger:  zerolog.Nop(),
	})
}

// ShiftsCmd returns the shifts command
func ShiftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "Browse a station's shifts on the backend",
	}

	cmd.AddCommand(shiftsListCmd())
	cmd.AddCommand(shiftsGetCmd())
	cmd.AddCommand(shiftsCreateCmd())
	cmd.AddCommand(shiftsDeleteCmd())

	return cmd
}

func shiftsListCmd() *cobra.Command {
	var (
		flags  backendFlags
		status string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a station's shifts",
		Long: `List one page of a station's shifts.

Examples:
  fuelctl shifts list --station 4
  fuelctl shifts list --station 4 --status suspended --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := shift.Status(status)
			if status != "" && !st.Valid() {
				return fmt.Errorf("invalid status %q (expected suspended or closed)", status)
			}
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			result, err := client.ListStationShifts(ctx, shift.StationID(flags.station), backend.ShiftFilter{
				Page:   page,
				Status: st,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Shifts) == 0 {
				fmt.Fprintln(out, "No shifts found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEAM\tSTART\tEND\tSTATUS")
			fmt.Fprintln(w, "--\t----\t-----\t---\t------")
			for _, s := range result.Shifts {
				end := "-"
				if s.ShiftEnd != nil {
					end = s.ShiftEnd.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.ID,
					s.TeamID,
					s.ShiftStart.Format("2006-01-02 15:04"),
					end,
					statusColor(s.Status),
				)
			}
			w.Flush()
			fmt.Fprintf(out, "\nPage %d of %d (%d shifts)\n", result.Page, result.LastPage, result.Total)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (suspended, closed)")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	return cmd
}

func shiftsGetCmd() *cobra.Command {
	var (
		flags  backendFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "get <shift-id>",
		Short: "Download a shift as JSON",
		Long: `Download a shift in the form reconcile, validate and export read.

Examples:
  fuelctl shifts get 812 -o shift-812.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s, err := client.GetShift(ctx, shift.ShiftID(args[0]))
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(factory.FromDomain(*s), "", "  ")
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write shift file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", color.New(color.FgGreen).Sprint("✓"), output)
			return nil
		},
	}

	flags.registerURL(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func shiftsCreateCmd() *cobra.Command {
	var flags backendFlags

	cmd := &cobra.Command{
		Use:   "create <shift.json>",
		Short: "Upload a shift file as a new shift",
		Long: `Create a suspended shift on the backend from a shift file. The
backend assigns the ID.

Examples:
  fuelctl shifts create shift-draft.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readShiftFile(args[0])
			if err != nil {
				return err
			}
			if s.Status == shift.StatusClosed {
				return fmt.Errorf("shift file is closed; only suspended shifts can be created")
			}
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			created, err := client.CreateShift(ctx, *s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created shift %s at station %s\n",
				color.New(color.FgGreen).Sprint("✓"), created.ID, created.StationID)
			return nil
		},
	}

	flags.registerURL(cmd)
	return cmd
}

func shiftsDeleteCmd() *cobra.Command {
	var flags backendFlags

	cmd := &cobra.Command{
		Use:   "delete <shift-id>",
		Short: "Delete a shift on the backend",
		Long: `Delete a shift. The station is needed to refresh its cached lists.

Examples:
  fuelctl shifts delete 812 --station 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := client.DeleteShift(ctx, shift.StationID(flags.station), shift.ShiftID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted shift %s\n", color.New(color.FgGreen).Sprint("✓"), args[0])
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// ReadingsCmd returns the readings command
func ReadingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readings",
		Short: "Pump meter readings",
	}

	cmd.AddCommand(readingsLastCmd())

	return cmd
}

func readingsLastCmd() *cobra.Command {
	var flags backendFlags

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the closing readings of the station's last shift",
		Long: `Show the closing readings of the station's most recent shift, which
become the opening readings of the next one.

Examples:
  fuelctl readings last --station 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			readings, err := client.RetrieveLastReadings(ctx, shift.StationID(flags.station))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(readings) == 0 {
				fmt.Fprintln(out, "No readings found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PUMP\tPRODUCT\tCLOSING")
			fmt.Fprintln(w, "----\t-------\t-------")
			for _, r := range readings {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.PumpID, r.ProductID, r.Closing.StringFixed(3))
			}
			w.Flush()
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// StationsCmd returns the stations command
func StationsCmd() *cobra.Command {
	var (
		flags backendFlags
		user  string
	)

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List the stations a user may work at",
		Long: `List the stations assigned to a backend user.

Examples:
  fuelctl stations --user 17`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			stations, err := client.UserStations(ctx, user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stations) == 0 {
				fmt.Fprintln(out, "No stations found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION")
			fmt.Fprintln(w, "--\t----\t--------")
			for _, st := range stations {
				fmt.Fprintf(w, "%s\t%s\t%s\n", st.ID, st.Name, st.Location)
			}
			w.Flush()
			return nil
		},
	}

	flags.registerURL(cmd)
	cmd.Flags().StringVar(&user, "user", "", "Backend user ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

// DippingsCmd returns the dippings command
func DippingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dippings",
		Short: "Tank dipping records",
	}

	cmd.AddCommand(dippingsReportCmd())

	return cmd
}

func dippingsReportCmd() *cobra.Command {
	var (
		flags    backendFlags
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a station's dippings over a date range",
		Long: `Show the dippings recorded at a station, with the volume each tank
lost by dipping (opening + received - closing).

Examples:
  fuelctl dippings report --station 4 --from 2025-03-01 --to 2025-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := backend.ReportFilter{StationID: shift.StationID(flags.station)}
			var err error
			if filter.From, err = dateFlag("from", from); err != nil {
				return err
			}
			if filter.To, err = dateFlag("to", to); err != nil {
				return err
			}
			client, err := flags.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			dippings, err := client.DippingReport(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(dippings) == 0 {
				fmt.Fprintln(out, "No dippings found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TANK\tOPENING\tRECEIVED\tCLOSING\tDIPPED")
			fmt.Fprintln(w, "----\t-------\t--------\t-------\t------")
			for _, d := range dippings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					d.TankID,
					d.Opening.StringFixed(3),
					d.Received.StringFixed(3),
					d.Closing.StringFixed(3),
					d.Dipped().StringFixed(3),
				)
			}
			w.Flush()
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	return cmd
}

func dateFlag(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := factory.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q", name, raw)
	}
	return t, nil
}

func statusColor(s shift.Status) string {
	switch s {
	case shift.StatusClosed:
		return color.New(color.FgGreen).Sprint(s)
	case shift.StatusSuspended:
		return color.New(color.FgYellow).Sprint(s)
	}
	return string(s)
}
