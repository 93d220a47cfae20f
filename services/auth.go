package services

import (
	"net/http"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

const bcryptCost = 12

type AuthService struct {
	context.DefaultService

	sqlSvc *SqliteService
	jwtSvc *JWTService
	subSvc *SubscriptionService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.subSvc = svc.Service(SUBSCRIPTION_SVC).(*SubscriptionService)
	return nil
}

// ==================== OPERATIONS ====================

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := svc.sqlSvc.GetUserByEmail(email)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if existing != nil {
		return nil, shared.ErrConflict("An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := svc.sqlSvc.CreateUser(&model.User{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithField("user_id", user.ID).Info("User registered")

	return &dto.RegisterResponse{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if user == nil {
		return nil, shared.ErrUnauthorized("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrUnauthorized("Invalid email or password")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	if err := svc.sqlSvc.TouchLastLogin(user.ID); err != nil {
		log.Printf("Failed to update last login for %s: %v", user.ID, err)
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, nil
}

func (svc *AuthService) Me(userID string) (*dto.MeResponse, error) {
	user, err := svc.sqlSvc.GetUser(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if user == nil {
		return nil, shared.ErrNotFound("User not found")
	}

	tier, err := svc.subSvc.TierFor(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	return &dto.MeResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Tier:      string(tier),
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (svc *AuthService) Refresh(userID string) (*dto.TokenPair, error) {
	return svc.jwtSvc.GenerateTokenPair(userID)
}

// ==================== MIDDLEWARE ====================

func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
		}

		userID, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid JWT token")
		}

		if userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// RequireActiveSubscription gates paid routes. Runs after RequiredAuth.
func (svc *AuthService) RequireActiveSubscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(shared.UserID).(string)
		if !ok || userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		if _, err := svc.subSvc.RequireActive(userID); err != nil {
			if appErr, ok := shared.GetAppError(err); ok {
				return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, fiber.Map{
					"requiresPayment": appErr.StatusCode == http.StatusPaymentRequired,
				})
			}
			return shared.ResponseJSON(c, http.StatusInternalServerError, "Failed to verify subscription", nil)
		}

		return c.Next()
	}
}
