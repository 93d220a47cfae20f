package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

type HintsHandler struct {
	hintsSvc HintsServiceInterface
}

func NewHintsHandler(hintsSvc HintsServiceInterface) *HintsHandler {
	return &HintsHandler{hintsSvc: hintsSvc}
}

// @Summary Generate hints
// @Description Generate three-level progressive hints for a problem
// @Tags hints
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param hintsRequest body dto.HintsRequest true "Problem details"
// @Success 200 {object} shared.Response{data=dto.HintsResponse}
// @Router /api/v1/hints/generate [post]
func (h *HintsHandler) Generate(c *fiber.Ctx) error {
	var req dto.HintsRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.hintsSvc.GenerateHints(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Explain a problem
// @Description Generate a structured explanation of the problem statement
// @Tags hints
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param hintsRequest body dto.HintsRequest true "Problem details"
// @Success 200 {object} shared.Response{data=dto.HintsResponse}
// @Router /api/v1/hints/explain [post]
func (h *HintsHandler) Explain(c *fiber.Ctx) error {
	var req dto.HintsRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.hintsSvc.ExplainProblem(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
