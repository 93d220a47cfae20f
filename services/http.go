package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/lchelper/hints_api/services/handlers"
	"github.com/lchelper/hints_api/shared"
)

// maxRequestBodyBytes caps inbound payloads; oversized bodies get a 413
// before any handler runs.
const maxRequestBodyBytes = 500 * 1024

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	hintsSvc     *HintsService
	subSvc       *SubscriptionService
	rateLimitSvc *RateLimitService
	usageSvc     *UsageService
	favoritesSvc *FavoritesService
	sqlSvc       *SqliteService
	monSvc       *MonitoringService

	port     int
	adminKey string
	app      *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}
	svc.adminKey = os.Getenv("ADMIN_API_KEY")

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.hintsSvc = svc.Service(HINTS_SVC).(*HintsService)
	svc.subSvc = svc.Service(SUBSCRIPTION_SVC).(*SubscriptionService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.usageSvc = svc.Service(USAGE_SVC).(*UsageService)
	svc.favoritesSvc = svc.Service(FAVORITES_SVC).(*FavoritesService)
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.app = fiber.New(fiber.Config{
		BodyLimit:    maxRequestBodyBytes,
		ErrorHandler: svc.handleError,
	})

	svc.app.Use(recover.New())
	svc.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Key",
	}))
	svc.app.Use(MonitoringMiddleware(svc.monSvc))

	svc.RegisterRoutes(svc.app)

	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// RegisterRoutes mounts the full API surface onto app. Split out from
// Start so tests can mount it on an app they drive directly.
func (svc *HttpService) RegisterRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	hintsHandler := handlers.NewHintsHandler(svc.hintsSvc)
	subHandler := handlers.NewSubscriptionHandler(svc.subSvc)
	userHandler := handlers.NewUserHandler(svc.usageSvc)
	favoritesHandler := handlers.NewFavoritesHandler(svc.favoritesSvc)
	adminHandler := handlers.NewAdminHandler(svc.sqlSvc, svc.rateLimitSvc, hintsCacheTTL)

	app.Get("/health", svc.health)

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", svc.rateLimitSvc.BurstRateLimit("auth"), authHandler.Register)
	auth.Post("/login", svc.rateLimitSvc.BurstRateLimit("auth"), authHandler.Login)
	auth.Get("/me", svc.authSvc.RequiredAuth(), authHandler.Me)
	auth.Post("/refresh", svc.authSvc.RequiredAuth(), authHandler.Refresh)

	hints := v1.Group("/hints",
		svc.authSvc.RequiredAuth(),
		svc.authSvc.RequireActiveSubscription(),
		svc.rateLimitSvc.PersistentRateLimit(DefaultRateLimitEndpoint),
	)
	hints.Post("/generate", svc.usageSvc.TrackUsage(shared.EndpointHintsGenerate), hintsHandler.Generate)
	hints.Post("/explain", svc.usageSvc.TrackUsage(shared.EndpointHintsExplain), hintsHandler.Explain)

	subscription := v1.Group("/subscription", svc.authSvc.RequiredAuth())
	subscription.Get("/status", subHandler.Status)
	subscription.Post("/cancel", subHandler.Cancel)

	user := v1.Group("/user", svc.authSvc.RequiredAuth())
	user.Get("/usage", userHandler.Usage)
	user.Get("/profile", authHandler.Me)

	favorites := v1.Group("/favorites", svc.authSvc.RequiredAuth())
	favorites.Get("/", favoritesHandler.List)
	favorites.Post("/", svc.rateLimitSvc.BurstRateLimit("favorites"), favoritesHandler.Add)
	favorites.Get("/:problemId/check", favoritesHandler.Check)
	favorites.Delete("/:problemId", favoritesHandler.Remove)

	admin := v1.Group("/admin", svc.requireAdminKey())
	admin.Get("/stats", adminHandler.Stats)
	admin.Post("/rate-limits/cleanup", adminHandler.CleanupRateLimits)
	admin.Delete("/rate-limits/:identifier/:endpoint", adminHandler.ResetRateLimit)
	admin.Post("/cache/cleanup", adminHandler.CleanupCache)
	admin.Post("/subscription/activate", subHandler.Activate)
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /health [get]
func (svc *HttpService) health(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "ok")
}

// requireAdminKey guards the admin surface with a static header key.
// An unset ADMIN_API_KEY disables the surface entirely.
func (svc *HttpService) requireAdminKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if svc.adminKey == "" || c.Get("X-Admin-Key") != svc.adminKey {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}
		return c.Next()
	}
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Printf("Unhandled request error: %v", err)
	return shared.ResponseInternalError(c, err)
}
