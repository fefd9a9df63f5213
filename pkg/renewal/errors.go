package renewal

import "errors"

var (
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrMembershipNotActive = errors.New("membership is not active")
	ErrNoTimeLeft          = errors.New("membership ends before the trainer period starts")
	ErrNoPendingPayment    = errors.New("no pending payment for membership")
	ErrNoMatchingAddon     = errors.New("no pending trainer addon matches the payment")
	ErrAmountMismatch      = errors.New("payment amount does not match the addon price")
	// ErrConflict means another request changed the rows between read and write.
	ErrConflict = errors.New("renewal was processed concurrently")
)

// RejectionError explains why an approval was refused. Candidates carries
// the rows that were considered, for operators.
type RejectionError struct {
	Err        error
	Reason     string
	Candidates map[string]interface{}
}

func (e *RejectionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Err.Error()
}

func (e *RejectionError) Unwrap() error { return e.Err }

func reject(err error, reason string, candidates map[string]interface{}) *RejectionError {
	return &RejectionError{Err: err, Reason: reason, Candidates: candidates}
}
