package lifecycle

import (
	"context"

	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/repository/unitofwork"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/events"
)

// Runner executes one lifecycle batch: scan, transition, notify.
type Runner struct {
	cfg       Config
	scanner   *Scanner
	engine    *Engine
	notifier  *Notifier
	publisher events.Publisher
	clock     clock.Clock
	logger    logger.ILogger
}

func NewRunner(uowFactory unitofwork.RepositoryFactory, m Mailer, p events.Publisher, clk clock.Clock, l logger.ILogger, cfg Config) *Runner {
	return &Runner{
		cfg:       cfg,
		scanner:   NewScanner(uowFactory, clk, l),
		engine:    NewEngine(uowFactory, clk, l, cfg),
		notifier:  NewNotifier(uowFactory, m, p, clk, l, cfg),
		publisher: p,
		clock:     clk,
		logger:    l,
	}
}

// Run performs one batch. notificationDays overrides the configured warning
// window when positive.
func (r *Runner) Run(ctx context.Context, notificationDays int) *Report {
	cfg := r.cfg
	if notificationDays > 0 {
		cfg.NotificationDays = notificationDays
	}
	report := NewReport()
	c := r.scanner.Scan(ctx, cfg)

	report.ExpiringFound = len(c.Expiring)
	report.ReminderFound = len(c.ExpiringReminder)
	report.ExpiresTodayFound = len(c.ExpiresToday)
	report.GraceEligible = len(c.GraceEligible)
	report.InGraceFound = len(c.InGrace)
	report.TrainerExpiringFound = len(c.TrainerExpiring)
	report.TrainerGraceEligible = len(c.TrainerGraceEligible)
	report.TrainerInGraceFound = len(c.TrainerInGrace)

	// legacy rows go first so the grace step does not pick them up
	steps := []struct {
		field *int
		run   func() Outcome
	}{
		{&report.LegacyExpired, func() Outcome { return r.engine.ExpireLegacy(ctx, c.LegacyExpired) }},
		{&report.MovedToGrace, func() Outcome { return r.engine.StartGrace(ctx, c.GraceEligible) }},
		{&report.Terminated, func() Outcome { return r.engine.Terminate(ctx, c.GraceEnded) }},
		{&report.TrainerGraceStarted, func() Outcome { return r.engine.StartTrainerGrace(ctx, c.TrainerGraceEligible) }},
		{&report.TrainerRevoked, func() Outcome { return r.engine.RevokeTrainer(ctx, c.TrainerGraceEnded) }},
	}
	for _, step := range steps {
		out := step.run()
		*step.field = len(out.Applied)
		report.Errors += out.Failed
		r.notifier.Announce(ctx, out.Applied, report)
	}

	r.notifier.Remind(ctx, c, report)

	summary := map[string]interface{}{
		"moved_to_grace":  report.MovedToGrace,
		"legacy_expired":  report.LegacyExpired,
		"terminated":      report.Terminated,
		"trainer_grace":   report.TrainerGraceStarted,
		"trainer_revoked": report.TrainerRevoked,
		"notifications":   report.Notifications,
		"errors":          report.Errors,
	}
	r.logger.Info(module, "Lifecycle run finished", summary)
	if err := r.publisher.Publish(ctx, events.New(events.LifecycleRunCompleted, summary, r.clock.Now())); err != nil {
		r.logger.Warn(module, "Failed to publish run summary", map[string]interface{}{"error": err.Error()})
	}
	return report
}
