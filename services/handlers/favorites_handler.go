package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

type FavoritesHandler struct {
	favoritesSvc FavoritesServiceInterface
}

func NewFavoritesHandler(favoritesSvc FavoritesServiceInterface) *FavoritesHandler {
	return &FavoritesHandler{favoritesSvc: favoritesSvc}
}

// @Summary List favorites
// @Description Return the user's saved problems
// @Tags favorites
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]dto.FavoriteResponse}
// @Router /api/v1/favorites [get]
func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.favoritesSvc.List(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Add favorite
// @Description Save a problem to the user's favorites
// @Tags favorites
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param favoriteRequest body dto.AddFavoriteRequest true "Problem details"
// @Success 201 {object} shared.Response{data=dto.FavoriteResponse}
// @Router /api/v1/favorites [post]
func (h *FavoritesHandler) Add(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.AddFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.favoritesSvc.Add(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Favorite saved", resp)
}

// @Summary Remove favorite
// @Description Delete a problem from the user's favorites
// @Tags favorites
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param problemId path string true "Problem ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/favorites/{problemId} [delete]
func (h *FavoritesHandler) Remove(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	problemID := c.Params("problemId")

	if err := h.favoritesSvc.Remove(userID, problemID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Favorite removed", nil)
}

// @Summary Check favorite
// @Description Check whether a problem is in the user's favorites
// @Tags favorites
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param problemId path string true "Problem ID"
// @Success 200 {object} shared.Response{data=dto.FavoriteCheckResponse}
// @Router /api/v1/favorites/{problemId}/check [get]
func (h *FavoritesHandler) Check(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)
	problemID := c.Params("problemId")

	resp, err := h.favoritesSvc.Check(userID, problemID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
