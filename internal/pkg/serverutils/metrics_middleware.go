package serverutils

import (
	"strconv"
	"time"

	"gym-membership-be/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

func MetricsMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		// route template keeps label cardinality bounded
		metrics.RecordHTTPRequest(ctx.Method(), ctx.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}
