package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret  = "jwt-test-secret"
	cronSecret = "cron-test-secret"
)

func sign(t *testing.T, secret, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func cronApp(cron, jwtKey string) *fiber.App {
	app := fiber.New()
	app.Post("/cron", CronOrAdminMiddleware(cron, jwtKey), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", ctx.Locals("role")))
	})
	return app
}

func TestCronOrAdminMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		cron   string
		jwtKey string
		header string
		want   int
	}{
		{"cron secret", cronSecret, jwtSecret, "Bearer " + cronSecret, http.StatusOK},
		{"admin session", cronSecret, jwtSecret, "Bearer " + sign(t, jwtSecret, "admin"), http.StatusOK},
		{"member session", cronSecret, jwtSecret, "Bearer " + sign(t, jwtSecret, "user"), http.StatusForbidden},
		{"wrong signature", cronSecret, jwtSecret, "Bearer " + sign(t, "other", "admin"), http.StatusUnauthorized},
		{"no header", cronSecret, jwtSecret, "", http.StatusUnauthorized},
		{"wrong cron secret", cronSecret, "", "Bearer nope", http.StatusUnauthorized},
		{"nothing configured", "", "", "Bearer " + cronSecret, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := cronApp(tt.cron, tt.jwtKey).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminMiddleware_SetsCaller(t *testing.T) {
	app := fiber.New()
	var caller uuid.UUID
	app.Get("/admin", AdminMiddleware(jwtSecret), func(ctx *fiber.Ctx) error {
		caller, _ = UserID(ctx)
		return ctx.SendStatus(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwtSecret, "admin"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEqual(t, uuid.Nil, caller)
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Id    int64  `validate:"required,gt=0"`
		Level string `validate:"omitempty,oneof=INFO ERROR"`
	}
	assert.NoError(t, ValidateRequest(req{Id: 3}))

	err := ValidateRequest(req{Level: "TRACE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Id is required")
	assert.Contains(t, err.Error(), "Level must be one of [INFO ERROR]")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/teapot", func(ctx *fiber.Ctx) error { return fiber.NewError(http.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
