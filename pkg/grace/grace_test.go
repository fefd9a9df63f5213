package grace

import (
	"testing"
	"time"

	"gym-membership-be/pkg/clock"

	"github.com/stretchr/testify/assert"
)

func TestPolicyEnd(t *testing.T) {
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC), MembershipPolicy.ComputeGraceEnd(end))
	assert.Equal(t, time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), TrainerPolicy.ComputeGraceEnd(end))
}

func TestDaysRemaining_MilestoneExactness(t *testing.T) {
	loc := clock.LoadLocation("")
	now := time.Date(2026, 5, 10, 15, 45, 0, 0, loc)
	today := clock.DayStart(now, loc)

	tests := []struct {
		name      string
		graceEnd  time.Time
		want      int
		milestone bool
	}{
		{"exactly seven days", today.AddDate(0, 0, 7), 7, true},
		{"six days", today.AddDate(0, 0, 6), 6, false},
		{"eight days", today.AddDate(0, 0, 8), 8, false},
		{"part of a day rounds up", today.AddDate(0, 0, 1).Add(2 * time.Hour), 2, true},
		{"ends tonight", today.Add(20 * time.Hour), 1, true},
		{"already closed", today.Add(-time.Hour), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := DaysRemaining(tt.graceEnd, now, loc)
			assert.Equal(t, tt.want, days)
			assert.Equal(t, tt.milestone, MembershipPolicy.Milestone(days))
		})
	}
}

func TestTrainerMilestones(t *testing.T) {
	assert.True(t, TrainerPolicy.Milestone(3))
	assert.True(t, TrainerPolicy.Milestone(1))
	assert.False(t, TrainerPolicy.Milestone(2))
}

func TestWithDays(t *testing.T) {
	p := MembershipPolicy.WithDays(5)
	assert.Equal(t, 5, p.Days)
	assert.Equal(t, []int{2, 1}, p.Marks)

	assert.Equal(t, MembershipPolicy, MembershipPolicy.WithDays(0))
}

func TestDue_FiresOncePerWindow(t *testing.T) {
	loc := clock.LoadLocation("")
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, loc)
	graceEnd := clock.DayStart(now, loc).AddDate(0, 0, 7)

	fired := 0
	for _, m := range MembershipPolicy.Milestones(&graceEnd, now, loc) {
		if m.ShouldNotify {
			fired++
			assert.Equal(t, 7, m.DaysRemaining)
		}
	}
	assert.Equal(t, 1, fired)

	_, ok := MembershipPolicy.Due(nil, now, loc)
	assert.False(t, ok)
}
