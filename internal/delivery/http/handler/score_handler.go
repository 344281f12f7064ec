package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/saferoute-microservice/internal/pkg/errors"
	"github.com/saferoute-microservice/internal/pkg/utils"
	"github.com/saferoute-microservice/internal/pkg/validator"
	"github.com/saferoute-microservice/internal/usecase"
	"github.com/saferoute-microservice/internal/usecase/dto"
	"go.uber.org/zap"
)

// ScoreHandler handles route scoring requests.
type ScoreHandler struct {
	scorer usecase.RouteScorer
	logger *zap.Logger
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(scorer usecase.RouteScorer, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{
		scorer: scorer,
		logger: logger,
	}
}

// ScoreRoutes annotates the posted routes with safety scores.
func (h *ScoreHandler) ScoreRoutes(c *fiber.Ctx) error {
	var req dto.ScoreRoutesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	result, err := h.scorer.ScoreRoutes(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: len(result.Routes),
	})
}
