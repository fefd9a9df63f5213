package reconcile

import (
	"testing"
	"time"

	"gym-membership-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paidAt = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func regularMonthly(status entity.MembershipStatus) *entity.Membership {
	return &entity.Membership{
		Id:           7,
		PlanName:     "Regular Monthly",
		PlanCategory: entity.PlanCategoryRegularMonthly,
		PlanMode:     entity.PlanModeInGym,
		Price:        1200,
		Status:       status,
	}
}

func history(renewal *entity.MembershipPayment) []*entity.MembershipPayment {
	return []*entity.MembershipPayment{
		{Id: 1, MembershipId: 7, Amount: 1200, Status: entity.MembershipPaymentVerified, CreatedAt: paidAt.AddDate(0, -1, 0)},
		renewal,
	}
}

func trainerAddon(id int64, price float64, createdAt time.Time) *entity.MembershipAddon {
	return &entity.MembershipAddon{
		Id:           id,
		MembershipId: 7,
		AddonType:    entity.AddonTypePersonalTrainer,
		Status:       entity.AddonStatusPending,
		Price:        price,
		CreatedAt:    createdAt,
	}
}

func TestRenewalPrice(t *testing.T) {
	tests := []struct {
		name string
		m    entity.Membership
		want float64
	}{
		{"regular monthly 1200", entity.Membership{PlanCategory: entity.PlanCategoryRegularMonthly, PlanMode: entity.PlanModeInGym, Price: 1200}, 650},
		{"regular monthly 1400", entity.Membership{PlanCategory: entity.PlanCategoryRegularMonthly, PlanMode: entity.PlanModeInGym, Price: 1400}, 700},
		{"regular monthly off table", entity.Membership{PlanCategory: entity.PlanCategoryRegularMonthly, PlanMode: entity.PlanModeInGym, Price: 1600}, 850},
		{"floored", entity.Membership{PlanCategory: entity.PlanCategoryRegularMonthly, PlanMode: entity.PlanModeInGym, Price: 200}, MinRenewalPrice},
		{"regular monthly online", entity.Membership{PlanCategory: entity.PlanCategoryRegularMonthly, PlanMode: entity.PlanModeOnline, Price: 1200}, 1200},
		{"standard plan", entity.Membership{PlanCategory: entity.PlanCategoryStandard, PlanMode: entity.PlanModeInGym, Price: 4500}, 4500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenewalPrice(&tt.m))
		})
	}
}

func TestClassify_FirstPaymentIsInitial(t *testing.T) {
	first := &entity.MembershipPayment{Id: 1, Amount: 1200, Status: entity.MembershipPaymentVerified, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    first,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   []*entity.MembershipPayment{first},
		Addons:     []*entity.MembershipAddon{trainerAddon(3, 3000, paidAt)},
	})
	assert.Equal(t, entity.PurposeInitial, res.Purpose)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestClassify_RejectedEarlierPaymentDoesNotCount(t *testing.T) {
	rejected := &entity.MembershipPayment{Id: 1, Amount: 1200, Status: entity.MembershipPaymentRejected, CreatedAt: paidAt.Add(-time.Hour)}
	p := &entity.MembershipPayment{Id: 2, Amount: 1200, Status: entity.MembershipPaymentPending, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   []*entity.MembershipPayment{rejected, p},
	})
	assert.Equal(t, entity.PurposeInitial, res.Purpose)
}

func TestClassify_ScenarioA_RenewalAmountWithTrainerNearby(t *testing.T) {
	p := &entity.MembershipPayment{Id: 2, Amount: 650, Status: entity.MembershipPaymentPending, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   history(p),
		Addons:     []*entity.MembershipAddon{trainerAddon(3, 3000, paidAt.Add(time.Minute))},
	})
	assert.Equal(t, entity.PurposeMembershipRenewal, res.Purpose)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Nil(t, res.MatchedAddonID)
}

func TestClassify_ScenarioB_CombinedPayment(t *testing.T) {
	p := &entity.MembershipPayment{Id: 2, Amount: 3650, Status: entity.MembershipPaymentPending, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   history(p),
		Addons:     []*entity.MembershipAddon{trainerAddon(3, 3000, paidAt.Add(-2*time.Minute))},
	})
	assert.Equal(t, entity.PurposeMembershipRenewal, res.Purpose)
	assert.Equal(t, HypothesisMembershipWithTrainer, res.Hypothesis)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	require.NotNil(t, res.MatchedAddonID)
	assert.EqualValues(t, 3, *res.MatchedAddonID)
}

func TestClassify_ScenarioC_NoTrainerInGrace(t *testing.T) {
	p := &entity.MembershipPayment{Id: 2, Amount: 650, Status: entity.MembershipPaymentPending, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusGracePeriod),
		Payments:   history(p),
	})
	assert.Equal(t, entity.PurposeMembershipRenewal, res.Purpose)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestClassify_TrainerOnly(t *testing.T) {
	p := &entity.MembershipPayment{Id: 2, Amount: 3000, Status: entity.MembershipPaymentVerified, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   history(p),
		Addons:     []*entity.MembershipAddon{trainerAddon(3, 3000, paidAt.Add(-4*time.Minute))},
		Assignments: []*entity.TrainerAssignment{
			{Id: 9, MembershipId: 7, AssignmentType: entity.AssignmentTypeAddon, CreatedAt: paidAt.Add(30 * time.Second)},
			{Id: 8, MembershipId: 7, AssignmentType: entity.AssignmentTypeAddon, CreatedAt: paidAt.Add(-3 * time.Minute)},
		},
	})
	assert.Equal(t, entity.PurposeTrainerRenewal, res.Purpose)
	assert.Equal(t, HypothesisTrainerOnly, res.Hypothesis)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	require.NotNil(t, res.MatchedAssignmentID)
	assert.EqualValues(t, 9, *res.MatchedAssignmentID)
}

func TestClassify_AddonOutsideWindowIgnored(t *testing.T) {
	p := &entity.MembershipPayment{Id: 2, Amount: 3000, Status: entity.MembershipPaymentVerified, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   history(p),
		Addons: []*entity.MembershipAddon{
			trainerAddon(3, 3000, paidAt.Add(-6*time.Minute)),
			trainerAddon(4, 3000, paidAt.Add(3*time.Minute)),
		},
	})
	assert.Nil(t, res.MatchedAddonID)
	assert.Equal(t, entity.PurposeMembershipRenewal, res.Purpose)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestClassify_MediumConfidenceBand(t *testing.T) {
	// 10% off the trainer price
	p := &entity.MembershipPayment{Id: 2, Amount: 2700, Status: entity.MembershipPaymentPending, CreatedAt: paidAt}
	res := Classify(Input{
		Payment:    p,
		Membership: regularMonthly(entity.MembershipStatusActive),
		Payments:   history(p),
		Addons:     []*entity.MembershipAddon{trainerAddon(3, 3000, paidAt)},
	})
	assert.Equal(t, entity.PurposeTrainerRenewal, res.Purpose)
	assert.Equal(t, ConfidenceMedium, res.Confidence)
}

func TestPickHypothesis_TieBreaksOnAbsoluteDistance(t *testing.T) {
	hs := []hypothesis{
		{HypothesisTrainerOnly, 1000},
		{HypothesisMembershipWithTrainer, 2000},
	}
	// 1100: 10% from 1000 (100 away); 2000 is 45% away
	best, _ := pickHypothesis(hs, 1100)
	assert.Equal(t, HypothesisTrainerOnly, best.name)

	// 1900 is 90% from 1000 and 5% from 2000
	best, _ = pickHypothesis(hs, 1900)
	assert.Equal(t, HypothesisMembershipWithTrainer, best.name)

	// 1050 vs 1000 (5%, 50 away) and 1100 (4.5%, 50 away): same band, same absolute distance, first wins
	best, _ = pickHypothesis([]hypothesis{{HypothesisTrainerOnly, 1000}, {HypothesisMembershipOnly, 1100}}, 1050)
	assert.Equal(t, HypothesisTrainerOnly, best.name)

	// 1080 vs 1000 (8%, 80 away) and 1100 (1.8%, 20 away): later is more than the band closer
	best, _ = pickHypothesis([]hypothesis{{HypothesisTrainerOnly, 1000}, {HypothesisMembershipOnly, 1100}}, 1080)
	assert.Equal(t, HypothesisMembershipOnly, best.name)
}

func TestInWindow(t *testing.T) {
	assert.True(t, InWindow(paidAt.Add(-5*time.Minute), paidAt))
	assert.True(t, InWindow(paidAt.Add(2*time.Minute), paidAt))
	assert.False(t, InWindow(paidAt.Add(-5*time.Minute-time.Second), paidAt))
	assert.False(t, InWindow(paidAt.Add(2*time.Minute+time.Second), paidAt))
}
