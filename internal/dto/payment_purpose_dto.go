package dto

// --- Payment Purpose ---

type PaymentPurposeResponse struct {
	PaymentId           int64   `json:"payment_id"`
	MembershipId        int64   `json:"membership_id"`
	Amount              float64 `json:"amount"`
	Purpose             string  `json:"purpose"`
	Confidence          string  `json:"confidence"`
	Reason              string  `json:"reason"`
	Hypothesis          string  `json:"hypothesis,omitempty"`
	RenewalPrice        float64 `json:"renewal_price"`
	TrainerPrice        float64 `json:"trainer_price,omitempty"`
	MatchedAddonId      *int64  `json:"matched_addon_id,omitempty"`
	MatchedAssignmentId *int64  `json:"matched_assignment_id,omitempty"`
}
