package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/service"
	"gym-membership-be/pkg/renewal"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret  = "controller-jwt"
	testCronSecret = "controller-cron"
)

type mockLifecycleService struct{ mock.Mock }

func (m *mockLifecycleService) Run(ctx context.Context) (*dto.LifecycleRunResponse, error) {
	args := m.Called()
	res, _ := args.Get(0).(*dto.LifecycleRunResponse)
	return res, args.Error(1)
}

type mockReconciliationService struct{ mock.Mock }

func (m *mockReconciliationService) ClassifyPayment(ctx context.Context, paymentId int64) (*dto.PaymentPurposeResponse, error) {
	args := m.Called(paymentId)
	res, _ := args.Get(0).(*dto.PaymentPurposeResponse)
	return res, args.Error(1)
}

type mockRenewalService struct{ mock.Mock }

func (m *mockRenewalService) ApproveTrainerRenewal(ctx context.Context, membershipId int64, adminId uuid.UUID) (*dto.TrainerRenewalResponse, error) {
	args := m.Called(membershipId, adminId)
	res, _ := args.Get(0).(*dto.TrainerRenewalResponse)
	return res, args.Error(1)
}

type mockAdminService struct{ mock.Mock }

func (m *mockAdminService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogDetailResponse, error) {
	args := m.Called(page, limit, level)
	res, _ := args.Get(0).([]*dto.LogDetailResponse)
	return res, args.Error(1)
}

func adminToken(t *testing.T, id uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func call(t *testing.T, app *fiber.App, method, path, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestLifecycleController_PostAndGetBehaveTheSame(t *testing.T) {
	svc := &mockLifecycleService{}
	svc.On("Run").Return(&dto.LifecycleRunResponse{
		Memberships: dto.MembershipRunCounts{MovedToGrace: 2},
	}, nil)

	app := fiber.New()
	NewLifecycleController(svc, testCronSecret, testJWTSecret).RegisterRoutes(app.Group("/api"))

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		code, body := call(t, app, method, "/api/cron/lifecycle", testCronSecret)
		assert.Equal(t, http.StatusOK, code, method)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, 2.0, data["memberships"].(map[string]interface{})["moved_to_grace"])
	}

	code, _ := call(t, app, http.MethodPost, "/api/cron/lifecycle", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	svc.AssertNumberOfCalls(t, "Run", 2)
}

func TestLifecycleController_MissingSecretsIsServerError(t *testing.T) {
	app := fiber.New()
	NewLifecycleController(&mockLifecycleService{}, "", "").RegisterRoutes(app.Group("/api"))

	code, _ := call(t, app, http.MethodPost, "/api/cron/lifecycle", "anything")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func adminApp(recon service.IReconciliationService, renewals service.IRenewalService, admin service.IAdminService) *fiber.App {
	app := fiber.New()
	NewAdminController(admin, recon, renewals, testJWTSecret).RegisterRoutes(app.Group("/api"))
	return app
}

func TestAdminController_PaymentPurpose(t *testing.T) {
	recon := &mockReconciliationService{}
	recon.On("ClassifyPayment", int64(12)).Return(&dto.PaymentPurposeResponse{
		PaymentId: 12, Purpose: "membership_renewal", Confidence: "high",
	}, nil)
	recon.On("ClassifyPayment", int64(13)).Return(nil, service.ErrPaymentNotFound)
	app := adminApp(recon, &mockRenewalService{}, &mockAdminService{})
	token := adminToken(t, uuid.New())

	code, body := call(t, app, http.MethodGet, "/api/admin/payments/12/purpose", token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "membership_renewal", body["data"].(map[string]interface{})["purpose"])

	code, _ = call(t, app, http.MethodGet, "/api/admin/payments/13/purpose", token)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, app, http.MethodGet, "/api/admin/payments/abc/purpose", token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodGet, "/api/admin/payments/12/purpose", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminController_ApproveTrainerRenewal(t *testing.T) {
	adminId := uuid.New()
	token := adminToken(t, adminId)

	tests := []struct {
		name string
		id   int64
		err  error
		want int
	}{
		{"approved", 1, nil, http.StatusOK},
		{"not found", 2, &renewal.RejectionError{Err: renewal.ErrMembershipNotFound, Reason: "membership 2 not found"}, http.StatusNotFound},
		{"conflict", 3, fmt.Errorf("verify payment: %w", renewal.ErrConflict), http.StatusConflict},
		{"amount mismatch", 4, &renewal.RejectionError{Err: renewal.ErrAmountMismatch, Reason: "amount off by 200"}, http.StatusUnprocessableEntity},
		{"database down", 5, errors.New("connection refused"), http.StatusInternalServerError},
	}
	renewals := &mockRenewalService{}
	for _, tt := range tests {
		if tt.err == nil {
			renewals.On("ApproveTrainerRenewal", tt.id, adminId).Return(&dto.TrainerRenewalResponse{MembershipId: tt.id}, nil)
		} else {
			renewals.On("ApproveTrainerRenewal", tt.id, adminId).Return(nil, tt.err)
		}
	}
	app := adminApp(&mockReconciliationService{}, renewals, &mockAdminService{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, app, http.MethodPost, fmt.Sprintf("/api/admin/memberships/%d/trainer-renewal/approve", tt.id), token)
			assert.Equal(t, tt.want, code)
			if tt.want == http.StatusUnprocessableEntity {
				assert.Equal(t, "amount off by 200", body["message"])
			}
		})
	}

	code, _ := call(t, app, http.MethodPost, "/api/admin/memberships/0/trainer-renewal/approve", token)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminController_GetLogs(t *testing.T) {
	admin := &mockAdminService{}
	admin.On("GetSystemLogs", 2, 5, "ERROR").Return([]*dto.LogDetailResponse{{}}, nil)
	app := adminApp(&mockReconciliationService{}, &mockRenewalService{}, admin)
	token := adminToken(t, uuid.New())

	code, body := call(t, app, http.MethodGet, "/api/admin/logs?page=2&limit=5&level=ERROR", token)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = call(t, app, http.MethodGet, "/api/admin/logs?level=TRACE", token)
	assert.Equal(t, http.StatusBadRequest, code)
}
