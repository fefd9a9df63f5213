// Package reconcile infers what a membership payment paid for from the
// timing and prices of the addons around it.
package reconcile

import (
	"math"
	"sort"
	"time"

	"gym-membership-be/internal/entity"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Hypothesis string

const (
	HypothesisTrainerOnly           Hypothesis = "trainer_only"
	HypothesisMembershipWithTrainer Hypothesis = "membership_with_trainer"
	HypothesisMembershipOnly        Hypothesis = "membership_only"
)

const (
	WindowBefore = 5 * time.Minute
	WindowAfter  = 2 * time.Minute

	// Tolerance is the largest relative distance accepted as a price match.
	Tolerance = 0.15
	// TieBand is the relative-distance band inside which absolute distance decides.
	TieBand = 0.02
	// StrongMatch is the relative distance under which a hypothesis is high confidence.
	StrongMatch = 0.05

	MinRenewalPrice = 300.0
)

// regular monthly in-gym renewal prices for the plans on sale
var renewalTable = map[float64]float64{
	1200: 650,
	1400: 700,
}

type Input struct {
	Payment     *entity.MembershipPayment
	Membership  *entity.Membership
	Payments    []*entity.MembershipPayment
	Addons      []*entity.MembershipAddon
	Assignments []*entity.TrainerAssignment
}

type Result struct {
	Purpose             entity.PaymentPurpose `json:"purpose"`
	Confidence          Confidence            `json:"confidence"`
	Reason              string                `json:"reason"`
	Hypothesis          Hypothesis            `json:"hypothesis,omitempty"`
	RenewalPrice        float64               `json:"renewal_price"`
	TrainerPrice        float64               `json:"trainer_price,omitempty"`
	MatchedAddonID      *int64                `json:"matched_addon_id,omitempty"`
	MatchedAssignmentID *int64                `json:"matched_assignment_id,omitempty"`
}

// RenewalPrice is what a renewal of the plan costs. Regular monthly in-gym
// plans renew without the admission share of the initial price.
func RenewalPrice(m *entity.Membership) float64 {
	if m == nil {
		return 0
	}
	if !m.IsRegularMonthly() || m.PlanMode != entity.PlanModeInGym {
		return m.Price
	}
	if p, ok := renewalTable[m.Price]; ok {
		return p
	}
	p := math.Round(m.Price*0.54/50) * 50
	if p < MinRenewalPrice {
		p = MinRenewalPrice
	}
	return p
}

// relDistance is |hypothesis - amount| relative to the hypothesis.
func relDistance(hypothesis, amount float64) float64 {
	if hypothesis <= 0 {
		return math.Inf(1)
	}
	return math.Abs(hypothesis-amount) / hypothesis
}

// InWindow reports whether t lies within the payment matching window around paidAt.
func InWindow(t, paidAt time.Time) bool {
	return !t.Before(paidAt.Add(-WindowBefore)) && !t.After(paidAt.Add(WindowAfter))
}

// isFirst reports whether no earlier non-rejected payment exists.
func isFirst(p *entity.MembershipPayment, all []*entity.MembershipPayment) bool {
	for _, other := range all {
		if other.Id == p.Id || other.Status == entity.MembershipPaymentRejected {
			continue
		}
		if other.CreatedAt.Before(p.CreatedAt) || (other.CreatedAt.Equal(p.CreatedAt) && other.Id < p.Id) {
			return false
		}
	}
	return true
}

func inGrace(m *entity.Membership, at time.Time) bool {
	return m.Status == entity.MembershipStatusGracePeriod || m.InGraceAt(at)
}

type trainerMatch struct {
	addon    *entity.MembershipAddon
	distance float64
}

// matchTrainerAddon picks the personal trainer addon created around the
// payment whose price explains the amount, either alone or on top of a
// membership renewal.
func matchTrainerAddon(in Input, renewal float64) *trainerMatch {
	paidAt := in.Payment.CreatedAt
	amount := in.Payment.Amount

	var best *trainerMatch
	for _, a := range in.Addons {
		if a.AddonType != entity.AddonTypePersonalTrainer || !InWindow(a.CreatedAt, paidAt) {
			continue
		}
		d := math.Min(relDistance(a.Price, amount), relDistance(a.Price, amount-renewal))
		if best == nil || d < best.distance {
			best = &trainerMatch{addon: a, distance: d}
		}
	}
	if best == nil || best.distance > Tolerance {
		return nil
	}
	return best
}

// nearestAssignment returns the addon assignment created closest to the payment inside the window.
func nearestAssignment(in Input) *entity.TrainerAssignment {
	paidAt := in.Payment.CreatedAt
	list := make([]*entity.TrainerAssignment, 0, len(in.Assignments))
	for _, a := range in.Assignments {
		if a.AssignmentType == entity.AssignmentTypeAddon && InWindow(a.CreatedAt, paidAt) {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return nil
	}
	sort.SliceStable(list, func(i, j int) bool {
		return absDuration(list[i].CreatedAt.Sub(paidAt)) < absDuration(list[j].CreatedAt.Sub(paidAt))
	})
	return list[0]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

type hypothesis struct {
	name  Hypothesis
	value float64
}

// pickHypothesis keeps the first hypothesis unless a later one is closer by
// more than TieBand, or within TieBand and closer in absolute terms.
func pickHypothesis(hs []hypothesis, amount float64) (hypothesis, float64) {
	best := hs[0]
	bestRel := relDistance(best.value, amount)
	for _, h := range hs[1:] {
		rel := relDistance(h.value, amount)
		switch {
		case rel < bestRel-TieBand:
			best, bestRel = h, rel
		case math.Abs(rel-bestRel) <= TieBand && math.Abs(h.value-amount) < math.Abs(best.value-amount):
			best, bestRel = h, rel
		}
	}
	return best, bestRel
}

// Classify never fails: ambiguous payments come back with low confidence.
func Classify(in Input) Result {
	p, m := in.Payment, in.Membership
	renewal := RenewalPrice(m)
	res := Result{RenewalPrice: renewal}

	if isFirst(p, in.Payments) {
		res.Purpose = entity.PurposeInitial
		res.Confidence = ConfidenceHigh
		res.Reason = "first payment of the membership"
		return res
	}

	if a := nearestAssignment(in); a != nil {
		id := a.Id
		res.MatchedAssignmentID = &id
	}
	grace := inGrace(m, p.CreatedAt)

	match := matchTrainerAddon(in, renewal)
	if match == nil {
		res.Purpose = entity.PurposeMembershipRenewal
		switch {
		case relDistance(renewal, p.Amount) <= Tolerance:
			res.Confidence = ConfidenceHigh
			res.Reason = "amount matches the plan renewal price"
		case grace:
			res.Confidence = ConfidenceMedium
			res.Reason = "no trainer addon near the payment; membership in grace period"
		default:
			res.Confidence = ConfidenceLow
			res.Reason = "no trainer addon near the payment"
		}
		return res
	}

	id := match.addon.Id
	res.MatchedAddonID = &id
	res.TrainerPrice = match.addon.Price

	hs := []hypothesis{
		{HypothesisTrainerOnly, match.addon.Price},
		{HypothesisMembershipWithTrainer, renewal + match.addon.Price},
		{HypothesisMembershipOnly, renewal},
	}
	best, rel := pickHypothesis(hs, p.Amount)
	if rel <= Tolerance {
		res.Hypothesis = best.name
		res.Purpose = entity.PurposeMembershipRenewal
		if best.name == HypothesisTrainerOnly {
			res.Purpose = entity.PurposeTrainerRenewal
		}
		res.Confidence = ConfidenceMedium
		if rel <= StrongMatch {
			res.Confidence = ConfidenceHigh
		}
		res.Reason = "amount matches " + string(best.name)
		return res
	}

	res.Confidence = ConfidenceLow
	if grace {
		res.Purpose = entity.PurposeMembershipRenewal
		res.Reason = "no price hypothesis fits; membership in grace period"
	} else {
		res.Purpose = entity.PurposeTrainerRenewal
		res.Reason = "no price hypothesis fits; trainer addon near the payment"
	}
	return res
}
