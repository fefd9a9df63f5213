package controller

import (
	"errors"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/pkg/serverutils"
	"gym-membership-be/internal/service"
	"gym-membership-be/pkg/renewal"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetPaymentPurpose(ctx *fiber.Ctx) error
	ApproveTrainerRenewal(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	service        service.IAdminService
	reconciliation service.IReconciliationService
	renewals       service.IRenewalService
	jwtSecret      string
}

func NewAdminController(
	service service.IAdminService,
	reconciliation service.IReconciliationService,
	renewals service.IRenewalService,
	jwtSecret string,
) IAdminController {
	return &adminController{
		service:        service,
		reconciliation: reconciliation,
		renewals:       renewals,
		jwtSecret:      jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))

	// Payments
	h.Get("/payments/:id/purpose", c.GetPaymentPurpose)

	// Trainer renewals
	h.Post("/memberships/:id/trainer-renewal/approve", c.ApproveTrainerRenewal)

	// Logs
	h.Get("/logs", c.GetLogs)
}

func (c *adminController) GetPaymentPurpose(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid payment id"))
	}

	res, err := c.reconciliation.ClassifyPayment(ctx.UserContext(), int64(id))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) || errors.Is(err, service.ErrMembershipNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Payment purpose", res))
}

func (c *adminController) ApproveTrainerRenewal(ctx *fiber.Ctx) error {
	var req dto.ApproveTrainerRenewalRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid membership id"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	adminId, ok := serverutils.UserID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Token missing user_id"))
	}

	res, err := c.renewals.ApproveTrainerRenewal(ctx.UserContext(), req.MembershipId, adminId)
	if err != nil {
		return c.renewalError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Trainer renewal approved", res))
}

func (c *adminController) renewalError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, renewal.ErrMembershipNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	case errors.Is(err, renewal.ErrConflict):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	if rej, ok := service.RejectionOf(err); ok {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponseWithData(422, rej.Reason, rej))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), req.Page, req.Limit, req.Level)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}
