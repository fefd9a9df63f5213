package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/pkg/mailer"
	"gym-membership-be/internal/repository/memory"
	"gym-membership-be/internal/service"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/dispatch"
	"gym-membership-be/pkg/events"
	"gym-membership-be/pkg/lifecycle"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// outbox collects the emails of a simulated run instead of sending them.
type outbox struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	if msg.To == "" {
		return mailer.ErrNoRecipient
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) Messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.messages...)
}

type simulation struct {
	Run    *dto.LifecycleRunResponse `json:"run"`
	Events []string                  `json:"events"`
	Emails []string                  `json:"emails"`
}

func newSimulateCommand(opts *rootOptions) *cobra.Command {
	var (
		date string
		days int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the lifecycle against an in-memory sample gym",
		Long: `Seed an in-memory store with one membership per lifecycle situation and
run a batch against it. Nothing is written to a database and no mail is sent.

Example:
  gymctl simulate
  gymctl simulate --date 2025-03-01 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := clock.LoadLocation("Asia/Kolkata")
			at := time.Now().In(loc)
			if date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				at = d.Add(10 * time.Hour)
			}

			res, err := simulate(cmd.Context(), opts, clock.FixedClock{At: at, Loc: loc}, days)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			printRunReport(w, res.Run)
			color.New(color.FgCyan).Fprintf(w, "Events (%d)\n", len(res.Events))
			for _, e := range res.Events {
				fmt.Fprintf(w, "  %s\n", e)
			}
			color.New(color.FgCyan).Fprintf(w, "Emails (%d)\n", len(res.Emails))
			for _, e := range res.Emails {
				fmt.Fprintf(w, "  %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business date to simulate (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "notification-days", 7, "expiry warning window")
	return cmd
}

func simulate(ctx context.Context, opts *rootOptions, clk clock.FixedClock, days int) (*simulation, error) {
	store := memory.NewStore()
	seedSampleGym(store, clk)
	store.PutSetting(service.NotificationDaysSetting, fmt.Sprint(days))

	log := opts.logger()
	box := &outbox{}
	recorder := &events.Recorder{}
	dispatcher := dispatch.New(store, box, log, clk, dispatch.WithRetry(0, 0, 0))
	runner := lifecycle.NewRunner(store, dispatcher, recorder, clk, log, lifecycle.DefaultConfig())
	svc := service.NewLifecycleService(runner, memory.NewSettingsCache(store, time.Minute), days, clk, log)

	run, err := svc.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := &simulation{Run: run}
	for _, e := range recorder.Events() {
		out.Events = append(out.Events, e.EventType())
	}
	for _, m := range box.Messages() {
		out.Emails = append(out.Emails, fmt.Sprintf("%s: %s", m.To, m.Subject))
	}
	return out, nil
}

// seedSampleGym stores one membership for each situation the batch handles.
func seedSampleGym(store *memory.Store, clk clock.FixedClock) {
	today := clock.Today(clk)
	day := func(n int) *time.Time {
		t := today.AddDate(0, 0, n).Add(20 * time.Hour)
		return &t
	}
	member := func(name string) uuid.UUID {
		u := store.PutUser(entity.User{
			Email:    name + "@example.com",
			FullName: name,
			Role:     entity.UserRoleUser,
		})
		return u.Id
	}
	trainer := uuid.New()

	store.PutMembership(entity.Membership{UserId: member("warning"), PlanName: "Regular Monthly", Price: 1500,
		Status: entity.MembershipStatusActive, EndDate: day(7)})
	store.PutMembership(entity.Membership{UserId: member("reminder"), PlanName: "Regular Monthly", Price: 1500,
		Status: entity.MembershipStatusActive, EndDate: day(5)})
	store.PutMembership(entity.Membership{UserId: member("today"), PlanName: "Regular Quarterly", Price: 4000,
		Status: entity.MembershipStatusActive, EndDate: day(0)})
	store.PutMembership(entity.Membership{UserId: member("lapsed"), PlanName: "Regular Monthly", Price: 1500,
		Status: entity.MembershipStatusActive, EndDate: day(-1), TrainerAssigned: true, TrainerId: &trainer, TrainerPeriodEnd: day(20)})
	store.PutMembership(entity.Membership{UserId: member("terminated"), PlanName: "Regular Monthly", Price: 1500,
		Status: entity.MembershipStatusGracePeriod, EndDate: day(-8), GracePeriodEnd: day(-1)})
	store.PutMembership(entity.Membership{UserId: member("legacy"), PlanName: "Premium Annual", Price: 12000,
		Status: entity.MembershipStatusActive, EndDate: day(-10)})
	store.PutMembership(entity.Membership{UserId: member("trainer-lapsed"), PlanName: "Premium Annual", Price: 12000,
		Status: entity.MembershipStatusActive, EndDate: day(90), TrainerAssigned: true, TrainerId: &trainer, TrainerPeriodEnd: day(-1)})
	store.PutMembership(entity.Membership{UserId: member("trainer-revoked"), PlanName: "Premium Annual", Price: 12000,
		Status: entity.MembershipStatusActive, EndDate: day(90), TrainerAssigned: true, TrainerId: &trainer,
		TrainerPeriodEnd: day(-4), TrainerGracePeriodEnd: day(-1)})
}
