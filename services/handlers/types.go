package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	Me(userID string) (*dto.MeResponse, error)
	Refresh(userID string) (*dto.TokenPair, error)
	RequiredAuth() fiber.Handler
	RequireActiveSubscription() fiber.Handler
}

type HintsServiceInterface interface {
	GenerateHints(ctx context.Context, req dto.HintsRequest) (*dto.HintsResponse, error)
	ExplainProblem(ctx context.Context, req dto.HintsRequest) (*dto.HintsResponse, error)
}

type SubscriptionServiceInterface interface {
	Status(userID string) (*dto.SubscriptionStatusResponse, error)
	Cancel(userID string) (*model.Subscription, error)
	Activate(req dto.ActivateSubscriptionRequest) (*model.Subscription, error)
}

type UsageServiceInterface interface {
	GetUsage(userID string) (*dto.UsageResponse, error)
}

type FavoritesServiceInterface interface {
	List(userID string) ([]dto.FavoriteResponse, error)
	Add(userID string, req dto.AddFavoriteRequest) (*dto.FavoriteResponse, error)
	Remove(userID, problemID string) error
	Check(userID, problemID string) (*dto.FavoriteCheckResponse, error)
}

type RateLimitServiceInterface interface {
	ResetRateLimit(identifier, endpoint string) error
}

type AdminStatsProvider interface {
	CountUsers() (int64, error)
	CountSubscriptionsByTier() (map[string]int64, error)
	CountActiveWindows() (int64, error)
	CountUsageSince(since time.Time) (int64, error)
	HintsCacheStats() (count int64, bytes int64, err error)
	CleanupStaleHints(olderThan time.Time) (int64, error)
	CleanupExpiredWindows() (int64, error)
	DeleteRateLimit(identifier, endpoint string) error
}
