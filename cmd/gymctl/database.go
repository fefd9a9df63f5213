package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gym-membership-be/internal/config"
	"gym-membership-be/internal/pkg/mailer"
	"gym-membership-be/internal/repository/memory"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/internal/service"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/database"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"
	"gym-membership-be/pkg/lifecycle"

	pktNats "gym-membership-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"
)

func openFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	if cfg.Database.Connection == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection,
		database.WithLogLevel(gormlogger.Warn),
		database.WithPool(2, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return unitofwork.NewRepositoryFactory(db), nil
}

func newRunLifecycleCommand(opts *rootOptions) *cobra.Command {
	var dryMail bool

	cmd := &cobra.Command{
		Use:   "run-lifecycle",
		Short: "Run one lifecycle batch against the configured database",
		Long: `Run one lifecycle batch: expiry warnings, grace transitions, terminations
and trainer access changes. This is the same batch the cron endpoint triggers.

Example:
  gymctl run-lifecycle
  gymctl run-lifecycle --console-mail --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			factory, err := openFactory(cfg)
			if err != nil {
				return err
			}
			log := opts.logger()
			clk := clock.NewBusinessClock(clock.LoadLocation(cfg.Lifecycle.BusinessTimezone))

			var emailService mailer.IEmailService = mailer.NewConsoleEmailService()
			if !dryMail && cfg.SMTP.Host != "" {
				emailService = mailer.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Email,
					cfg.SMTP.Password, cfg.SMTP.Email, cfg.SMTP.SenderName)
			}
			dispatcher := dispatch.New(factory, emailService, log, clk,
				dispatch.WithFailOpen(cfg.Lifecycle.IdempotencyFailOpen),
				dispatch.WithRetry(cfg.Lifecycle.EmailMaxRetries, 500*time.Millisecond, 30*time.Second),
			)

			var publisher events.Publisher = events.NopPublisher{}
			if cfg.App.NatsURL != "" {
				natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
				if err != nil {
					color.Yellow("NATS unavailable, events will not be published: %v", err)
				} else {
					defer natsPub.Close()
					publisher = natsPub
				}
			}

			runner := lifecycle.NewRunner(factory, dispatcher, publisher, clk, log, lifecycle.Config{
				GraceDays:        cfg.Lifecycle.GraceDays,
				TrainerGraceDays: cfg.Lifecycle.TrainerGraceDays,
				NotificationDays: cfg.Lifecycle.NotificationDays,
				ReminderDays:     cfg.Lifecycle.ReminderDays,
			})
			settings := memory.NewSettingsCache(factory, time.Minute)
			svc := service.NewLifecycleService(runner, settings, cfg.Lifecycle.NotificationDays, clk, log)

			res, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printRunReport(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryMail, "console-mail", false, "print emails instead of sending them over SMTP")
	return cmd
}

func newClassifyPaymentCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify-payment <payment-id>",
		Short: "Explain what a payment was for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid payment id %q", args[0])
			}
			factory, err := openFactory(config.Load())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			res, err := service.NewReconciliationService(factory, opts.logger()).ClassifyPayment(ctx, id)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			color.New(color.FgCyan, color.Bold).Fprintf(w, "Payment %d (membership %d, amount %.2f)\n", res.PaymentId, res.MembershipId, res.Amount)
			fmt.Fprintf(w, "  purpose:    %s\n", res.Purpose)
			fmt.Fprintf(w, "  confidence: %s\n", res.Confidence)
			fmt.Fprintf(w, "  reason:     %s\n", res.Reason)
			if res.Hypothesis != "" {
				color.New(color.FgYellow).Fprintf(w, "  hypothesis: %s\n", res.Hypothesis)
			}
			return nil
		},
	}
}
