package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/pkg/logger"
	"gym-membership-be/internal/pkg/metrics"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/lifecycle"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationDaysSetting is the admin_settings key overriding the pre-expiry window.
const NotificationDaysSetting = "expiry_notification_days"

type ILifecycleService interface {
	Run(ctx context.Context) (*dto.LifecycleRunResponse, error)
}

// SettingsReader is satisfied by memory.SettingsCache.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type lifecycleService struct {
	runner      *lifecycle.Runner
	settings    SettingsReader
	defaultDays int
	clock       clock.Clock
	logger      logger.ILogger
}

func NewLifecycleService(runner *lifecycle.Runner, settings SettingsReader, defaultDays int, clk clock.Clock, l logger.ILogger) ILifecycleService {
	return &lifecycleService{
		runner:      runner,
		settings:    settings,
		defaultDays: defaultDays,
		clock:       clk,
		logger:      l,
	}
}

func (s *lifecycleService) Run(ctx context.Context) (*dto.LifecycleRunResponse, error) {
	ctx, span := otel.Tracer("lifecycle").Start(ctx, "lifecycle.run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	started := time.Now()
	days := s.notificationDays(ctx)
	span.SetAttributes(attribute.Int("lifecycle.notification_days", days))

	report := s.runner.Run(ctx, days)

	elapsed := time.Since(started)
	metrics.ObserveLifecycleRun(elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("lifecycle.mutations", report.Mutations()),
		attribute.Int("lifecycle.errors", report.Errors),
	)

	return toLifecycleRunResponse(report, s.clock.Now(), elapsed, days), nil
}

// notificationDays reads the admin override, falling back to the configured default.
func (s *lifecycleService) notificationDays(ctx context.Context) int {
	if s.settings == nil {
		return s.defaultDays
	}
	raw, found, err := s.settings.Get(ctx, NotificationDaysSetting)
	if err != nil {
		s.logger.Warn("LIFECYCLE", "Failed to read notification window setting", map[string]interface{}{
			"error": err.Error(),
		})
		return s.defaultDays
	}
	if !found {
		return s.defaultDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days <= 0 {
		s.logger.Warn("LIFECYCLE", "Ignoring unparseable notification window setting", map[string]interface{}{
			"value": raw,
		})
		return s.defaultDays
	}
	return days
}

func toLifecycleRunResponse(r *lifecycle.Report, now time.Time, elapsed time.Duration, days int) *dto.LifecycleRunResponse {
	emails := make(map[string]dto.EmailCountResponse, len(r.Emails))
	for name, c := range r.Emails {
		emails[name] = dto.EmailCountResponse{Sent: c.Sent, Skipped: c.Skipped, Failed: c.Failed}
	}
	return &dto.LifecycleRunResponse{
		StartedAt:        now.Add(-elapsed),
		DurationMs:       elapsed.Milliseconds(),
		NotificationDays: days,
		Memberships: dto.MembershipRunCounts{
			ExpiringFound:     r.ExpiringFound,
			ReminderFound:     r.ReminderFound,
			ExpiresTodayFound: r.ExpiresTodayFound,
			GraceEligible:     r.GraceEligible,
			MovedToGrace:      r.MovedToGrace,
			LegacyExpired:     r.LegacyExpired,
			InGraceFound:      r.InGraceFound,
			Terminated:        r.Terminated,
		},
		Trainers: dto.TrainerRunCounts{
			ExpiringFound: r.TrainerExpiringFound,
			GraceEligible: r.TrainerGraceEligible,
			GraceStarted:  r.TrainerGraceStarted,
			InGraceFound:  r.TrainerInGraceFound,
			Revoked:       r.TrainerRevoked,
		},
		Emails:        emails,
		Notifications: r.Notifications,
		Errors:        r.Errors,
	}
}
