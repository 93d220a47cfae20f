package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/shared"
)

type UserHandler struct {
	usageSvc UsageServiceInterface
}

func NewUserHandler(usageSvc UsageServiceInterface) *UserHandler {
	return &UserHandler{usageSvc: usageSvc}
}

// @Summary Usage statistics
// @Description Return today's per-endpoint usage and the month's daily totals
// @Tags user
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UsageResponse}
// @Router /api/v1/user/usage [get]
func (h *UserHandler) Usage(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.usageSvc.GetUsage(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
