package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/shared"
)

type AdminHandler struct {
	stats        AdminStatsProvider
	rateLimitSvc RateLimitServiceInterface
	cacheTTL     time.Duration
}

func NewAdminHandler(stats AdminStatsProvider, rateLimitSvc RateLimitServiceInterface, cacheTTL time.Duration) *AdminHandler {
	return &AdminHandler{
		stats:        stats,
		rateLimitSvc: rateLimitSvc,
		cacheTTL:     cacheTTL,
	}
}

// @Summary Service statistics
// @Description Aggregate user, subscription, usage and cache counters
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Success 200 {object} shared.Response{data=fiber.Map}
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	users, err := h.stats.CountUsers()
	if err != nil {
		return err
	}

	tiers, err := h.stats.CountSubscriptionsByTier()
	if err != nil {
		return err
	}

	windows, err := h.stats.CountActiveWindows()
	if err != nil {
		return err
	}

	requests24h, err := h.stats.CountUsageSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		return err
	}

	cacheEntries, cacheBytes, err := h.stats.HintsCacheStats()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", fiber.Map{
		"users":                  users,
		"subscriptions_by_tier":  tiers,
		"active_rate_limit_rows": windows,
		"requests_last_24h":      requests24h,
		"cache_entries":          cacheEntries,
		"cache_bytes":            cacheBytes,
	})
}

// @Summary Purge expired rate limit windows
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Success 200 {object} shared.Response{data=fiber.Map}
// @Router /api/v1/admin/rate-limits/cleanup [post]
func (h *AdminHandler) CleanupRateLimits(c *fiber.Ctx) error {
	removed, err := h.stats.CleanupExpiredWindows()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Cleanup complete", fiber.Map{"removed": removed})
}

// @Summary Reset a rate limit
// @Description Delete all windows for one identifier and endpoint
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Param identifier path string true "Rate limit identifier"
// @Param endpoint path string true "Endpoint name"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/rate-limits/{identifier}/{endpoint} [delete]
func (h *AdminHandler) ResetRateLimit(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	endpoint := c.Params("endpoint")

	if err := h.rateLimitSvc.ResetRateLimit(identifier, endpoint); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Rate limit reset", nil)
}

// @Summary Purge stale hints cache entries
// @Tags admin
// @Produce json
// @Param X-Admin-Key header string true "Admin API key"
// @Success 200 {object} shared.Response{data=fiber.Map}
// @Router /api/v1/admin/cache/cleanup [post]
func (h *AdminHandler) CleanupCache(c *fiber.Ctx) error {
	removed, err := h.stats.CleanupStaleHints(time.Now().Add(-h.cacheTTL))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Cleanup complete", fiber.Map{"removed": removed})
}
