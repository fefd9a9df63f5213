package controller

import (
	"gym-membership-be/internal/pkg/serverutils"
	"gym-membership-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILifecycleController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
}

type lifecycleController struct {
	service    service.ILifecycleService
	cronSecret string
	jwtSecret  string
}

func NewLifecycleController(service service.ILifecycleService, cronSecret, jwtSecret string) ILifecycleController {
	return &lifecycleController{
		service:    service,
		cronSecret: cronSecret,
		jwtSecret:  jwtSecret,
	}
}

func (c *lifecycleController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/cron", serverutils.CronOrAdminMiddleware(c.cronSecret, c.jwtSecret))

	// GET is the manual alias of the scheduler's POST
	h.Post("/lifecycle", c.Run)
	h.Get("/lifecycle", c.Run)
}

func (c *lifecycleController) Run(ctx *fiber.Ctx) error {
	res, err := c.service.Run(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Lifecycle run completed", res))
}
