package serverutils

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the caller identified by a session token.
type Principal struct {
	UserId uuid.UUID
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == "admin" }

func bearer(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// ParseToken validates an HMAC-signed session token.
func ParseToken(tokenStr, secret string) (Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	var p Principal
	if raw, ok := claims["user_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			p.UserId = id
		}
	}
	p.Role, _ = claims["role"].(string)
	return p, nil
}

// authenticate resolves the bearer session. A nil handler error with ok=false
// means a response has already been written.
func authenticate(ctx *fiber.Ctx, secret string) (Principal, bool, error) {
	if secret == "" {
		return Principal{}, false, ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "Authentication is not configured"))
	}
	tokenStr := bearer(ctx)
	if tokenStr == "" {
		return Principal{}, false, ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing or invalid authorization header"))
	}
	p, err := ParseToken(tokenStr, secret)
	if err != nil {
		return Principal{}, false, ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid or expired token"))
	}
	return p, true, nil
}

func setPrincipal(ctx *fiber.Ctx, p Principal) {
	ctx.Locals("user_id", p.UserId)
	ctx.Locals("role", p.Role)
}

// AdminMiddleware requires a session token carrying role=admin.
func AdminMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, ok, err := authenticate(ctx, secret)
		if !ok {
			return err
		}
		if !p.IsAdmin() {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
		}
		setPrincipal(ctx, p)
		return ctx.Next()
	}
}

// CronOrAdminMiddleware accepts the scheduler's shared secret or an admin session.
func CronOrAdminMiddleware(cronSecret, jwtSecret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if cronSecret == "" && jwtSecret == "" {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "Cron authentication is not configured"))
		}
		tokenStr := bearer(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing or invalid authorization header"))
		}
		if cronSecret != "" && subtle.ConstantTimeCompare([]byte(tokenStr), []byte(cronSecret)) == 1 {
			ctx.Locals("role", "cron")
			return ctx.Next()
		}
		if jwtSecret != "" {
			if p, err := ParseToken(tokenStr, jwtSecret); err == nil {
				if !p.IsAdmin() {
					return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
				}
				setPrincipal(ctx, p)
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid or expired token"))
	}
}

// UserID reads the caller id stored by the auth middlewares.
func UserID(ctx *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := ctx.Locals("user_id").(uuid.UUID)
	return id, ok && id != uuid.Nil
}
