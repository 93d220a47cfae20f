package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

type SubscriptionHandler struct {
	subSvc SubscriptionServiceInterface
}

func NewSubscriptionHandler(subSvc SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc}
}

// @Summary Subscription status
// @Description Return the user's tier, status and remaining daily quota
// @Tags subscription
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.SubscriptionStatusResponse}
// @Router /api/v1/subscription/status [get]
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.subSvc.Status(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Cancel subscription
// @Description Flag the subscription to lapse at the end of the current period
// @Tags subscription
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=model.Subscription}
// @Router /api/v1/subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	sub, err := h.subSvc.Cancel(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription will end at period close", sub)
}

// @Summary Activate subscription
// @Description Provision or extend a subscription for a user
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param activateRequest body dto.ActivateSubscriptionRequest true "Activation details"
// @Success 200 {object} shared.Response{data=model.Subscription}
// @Router /api/v1/admin/subscription/activate [post]
func (h *SubscriptionHandler) Activate(c *fiber.Ctx) error {
	var req dto.ActivateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	sub, err := h.subSvc.Activate(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription activated", sub)
}
