package mapper

import (
	"testing"
	"time"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMembershipToEntity_ResolvesLegacyEndDate(t *testing.T) {
	primary := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	legacy := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	m := NewMembershipMapper()

	tests := []struct {
		name    string
		primary *time.Time
		legacy  *time.Time
		want    *time.Time
	}{
		{"both set prefers primary", &primary, &legacy, &primary},
		{"legacy only", nil, &legacy, &legacy},
		{"neither", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ToEntity(&model.Membership{
				PlanName:          "Regular Monthly",
				MembershipEndDate: tt.primary,
				EndDate:           tt.legacy,
			})
			assert.Equal(t, tt.want, got.EndDate)
			assert.Equal(t, entity.PlanCategoryRegularMonthly, got.PlanCategory)
		})
	}
}
