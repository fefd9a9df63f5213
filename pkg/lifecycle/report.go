package lifecycle

import (
	"sync"

	"gym-membership-be/pkg/dispatch"
)

type EmailCount struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Report counts what one run found and did. It is informational only.
type Report struct {
	mu sync.Mutex

	ExpiringFound     int
	ReminderFound     int
	ExpiresTodayFound int
	GraceEligible     int
	MovedToGrace      int
	LegacyExpired     int
	InGraceFound      int
	Terminated        int

	TrainerExpiringFound int
	TrainerGraceEligible int
	TrainerGraceStarted  int
	TrainerInGraceFound  int
	TrainerRevoked       int

	Notifications int
	Errors        int
	Emails        map[string]*EmailCount
}

func NewReport() *Report {
	return &Report{Emails: map[string]*EmailCount{}}
}

func (r *Report) email(name string, res dispatch.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Emails[name]
	if !ok {
		c = &EmailCount{}
		r.Emails[name] = c
	}
	switch {
	case res.Success:
		c.Sent++
	case res.Skipped:
		c.Skipped++
	default:
		c.Failed++
		r.Errors++
	}
}

func (r *Report) add(field *int, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*field += n
}

// Sent returns how many emails of the given template went out.
func (r *Report) Sent(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.Emails[name]; ok {
		return c.Sent
	}
	return 0
}

// Mutations is the number of state changes applied by the run.
func (r *Report) Mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.MovedToGrace + r.LegacyExpired + r.Terminated + r.TrainerGraceStarted + r.TrainerRevoked
}
