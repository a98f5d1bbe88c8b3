package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/bootstrap"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

type cli struct {
	verbose    bool
	jsonOutput bool
	components *bootstrap.Components
	out        io.Writer
}

func main() {
	c := &cli{out: os.Stdout}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Operate the clinic's appointment calendar",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.components != nil {
				_ = c.components.Close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at info level")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print JSON instead of a table")

	root.AddCommand(c.upcomingCmd())
	root.AddCommand(c.cancelCmd())
	root.AddCommand(c.rescheduleCmd())
	root.AddCommand(c.verifyCmd())
	root.AddCommand(c.availabilityCmd())
	return root
}

func (c *cli) setup(ctx context.Context) error {
	if c.components != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// Logs go to stderr so table and JSON output stay clean
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if !c.verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	c.components, err = bootstrap.Build(ctx, cfg, nil)
	return err
}

func (c *cli) management() *services.AppointmentManagementService {
	return c.components.Management()
}

func (c *cli) upcomingCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List appointments in the coming days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appointments, err := c.management().ListUpcoming(cmd.Context(), days)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(appointments)
			}
			return c.printAppointments(appointments)
		},
	}
	cmd.Flags().IntVar(&days, "days", services.DefaultUpcomingDays, "number of days to list")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "cancel EVENT_ID",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.management().Cancel(cmd.Context(), args[0], notify)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(result)
			}
			fmt.Fprintf(c.out, "Cancelled %s", result.EventID)
			if notify {
				fmt.Fprintf(c.out, " (patient notified: %t)", result.Notified)
			}
			fmt.Fprintln(c.out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "email the patient a cancellation notice")
	return cmd
}

func (c *cli) rescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule EVENT_ID YYYY-MM-DD HH:MM",
		Short: "Move an appointment to another slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			appt, err := c.management().Reschedule(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(appt)
			}
			return c.printAppointments([]entities.ScheduledAppointment{*appt})
		},
	}
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Report missing configuration and test the SMTP connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := c.components.ConfigStatus().Report(cmd.Context())
			if c.jsonOutput {
				return c.printJSON(report)
			}
			fmt.Fprintf(c.out, "Status: %s\n%s\n", report.Status, report.Message)
			for _, name := range report.MissingVariables {
				fmt.Fprintf(c.out, "  missing %s\n", name)
			}
			if report.Status != services.ConfigStatusReady {
				return fmt.Errorf("configuration is %s", report.Status)
			}
			return nil
		},
	}
}

func (c *cli) availabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability YYYY-MM-DD",
		Short: "Show the slots of a business day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := services.ParseCalendarDate(args[0])
			if err != nil {
				return err
			}
			slots, err := c.components.Availability.GetAvailability(cmd.Context(), date)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(slots)
			}

			loc, err := c.components.Hours.Location()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSTART (UTC)\tAVAILABLE")
			for _, slot := range slots {
				fmt.Fprintf(w, "%s\t%s\t%t\n", slot.Start.In(loc).Format("15:04"), slot.Start.UTC().Format(time.RFC3339), slot.Available)
			}
			return w.Flush()
		},
	}
}

func (c *cli) printAppointments(appointments []entities.ScheduledAppointment) error {
	loc, err := c.components.Hours.Location()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT ID\tSTART\tPATIENT\tSERVICE\tEMAIL")
	for _, appt := range appointments {
		patient, service, email := appt.Summary, "-", "-"
		if appt.HasDetails {
			patient, service, email = appt.Details.PatientName, appt.Details.ServiceType, appt.Details.PatientEmail
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", appt.EventID, appt.Start.In(loc).Format("2006-01-02 15:04"), patient, service, email)
	}
	return w.Flush()
}

func (c *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
