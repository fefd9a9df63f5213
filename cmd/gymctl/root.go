package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Verbose bool
	Format  string
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gymctl",
		Short: "Operate the membership lifecycle from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "write structured logs to logs/gymctl.log")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newRunLifecycleCommand(opts))
	cmd.AddCommand(newClassifyPaymentCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))

	return cmd
}

func (o *rootOptions) logger() logger.ILogger {
	if o.Verbose {
		return logger.NewZapLogger("logs/gymctl.log", false)
	}
	return logger.NewNopLogger()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRunReport(w io.Writer, res *dto.LifecycleRunResponse) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "Lifecycle run (notification window %d days, %dms)\n", res.NotificationDays, res.DurationMs)

	m := res.Memberships
	fmt.Fprintf(w, "  memberships: expiring=%d reminder=%d today=%d grace-eligible=%d\n",
		m.ExpiringFound, m.ReminderFound, m.ExpiresTodayFound, m.GraceEligible)
	color.New(color.FgGreen).Fprintf(w, "  moved to grace=%d legacy expired=%d terminated=%d (in grace %d)\n",
		m.MovedToGrace, m.LegacyExpired, m.Terminated, m.InGraceFound)

	t := res.Trainers
	fmt.Fprintf(w, "  trainers: expiring=%d grace-eligible=%d in-grace=%d\n", t.ExpiringFound, t.GraceEligible, t.InGraceFound)
	color.New(color.FgGreen).Fprintf(w, "  trainer grace started=%d revoked=%d\n", t.GraceStarted, t.Revoked)

	names := make([]string, 0, len(res.Emails))
	for name := range res.Emails {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := res.Emails[name]
		fmt.Fprintf(w, "  email %-28s sent=%d skipped=%d failed=%d\n", name, c.Sent, c.Skipped, c.Failed)
	}
	fmt.Fprintf(w, "  in-app notifications=%d\n", res.Notifications)

	if res.Errors > 0 {
		color.New(color.FgRed).Fprintf(w, "  errors=%d\n", res.Errors)
	} else {
		color.New(color.FgGreen).Fprintln(w, "  errors=0")
	}
}
