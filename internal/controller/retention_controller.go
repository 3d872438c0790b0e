package controller

import (
	"ai-reqanalyzer-be/internal/dto"
	"ai-reqanalyzer-be/internal/pkg/serverutils"
	"ai-reqanalyzer-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRetentionController interface {
	RegisterRoutes(r fiber.Router)
	PurgeBatch(ctx *fiber.Ctx) error
	PurgeOne(ctx *fiber.Ctx) error
}

type retentionController struct {
	retentionService service.IRetentionService
}

func NewRetentionController(retentionService service.IRetentionService) IRetentionController {
	return &retentionController{
		retentionService: retentionService,
	}
}

func (c *retentionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/retention/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("purge", c.PurgeBatch)
	h.Post("purge/:id", c.PurgeOne)
}

func (c *retentionController) PurgeBatch(ctx *fiber.Ctx) error {
	var req dto.PurgeBatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.retentionService.PurgeCompletedBatch(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success purge completed analyses", res))
}

func (c *retentionController) PurgeOne(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.PurgeOneRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.retentionService.PurgeOne(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success purge analysis", res))
}
