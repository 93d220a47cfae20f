package services

import (
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

// Tier is the closed set of subscription levels. Quota lookups switch
// exhaustively over it so an unknown value can never silently fall
// through to a paid ceiling.
type Tier string

const (
	TierFree    Tier = shared.TierFree
	TierPremium Tier = shared.TierPremium
	TierPro     Tier = shared.TierPro
)

func ParseTier(s string) Tier {
	switch s {
	case shared.TierPremium:
		return TierPremium
	case shared.TierPro:
		return TierPro
	default:
		return TierFree
	}
}

type SubscriptionService struct {
	context.DefaultService

	sqlSvc *SqliteService

	maxFree    int
	maxPremium int
	maxPro     int
}

const SUBSCRIPTION_SVC = "subscription_svc"

func (svc SubscriptionService) Id() string {
	return SUBSCRIPTION_SVC
}

func (svc *SubscriptionService) Configure(ctx *context.Context) error {
	svc.maxFree = envInt("RATE_LIMIT_MAX_FREE", 10)
	svc.maxPremium = envInt("RATE_LIMIT_MAX_PREMIUM", 25)
	svc.maxPro = envInt("RATE_LIMIT_MAX_PRO", 60)
	return svc.DefaultService.Configure(ctx)
}

func (svc *SubscriptionService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	return nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// TierFor resolves the effective tier for a user. A missing subscription,
// a canceled one, or one past its period end all come back as free.
func (svc *SubscriptionService) TierFor(userID string) (Tier, error) {
	sub, err := svc.sqlSvc.GetLatestSubscription(userID)
	if err != nil {
		return TierFree, err
	}
	return ParseTier(sub.EffectiveTier()), nil
}

// DailyCeiling maps a tier to its persistent-limiter quota.
func (svc *SubscriptionService) DailyCeiling(tier Tier) int {
	switch tier {
	case TierPremium:
		return svc.maxPremium
	case TierPro:
		return svc.maxPro
	case TierFree:
		return svc.maxFree
	}
	return svc.maxFree
}

// RequireActive loads the latest subscription and errs with 402 when the
// user is not entitled.
func (svc *SubscriptionService) RequireActive(userID string) (*model.Subscription, error) {
	sub, err := svc.sqlSvc.GetLatestSubscription(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	if !sub.IsActive() {
		return nil, shared.ErrPaymentRequired("Active subscription required. Please subscribe to use this service.")
	}

	return sub, nil
}

func (svc *SubscriptionService) Status(userID string) (*dto.SubscriptionStatusResponse, error) {
	sub, err := svc.sqlSvc.GetLatestSubscription(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	tier := ParseTier(sub.EffectiveTier())
	limit := svc.DailyCeiling(tier)

	used, err := svc.sqlSvc.CurrentRequestCount(RateLimitIdentifierForUser(userID), DefaultRateLimitEndpoint)
	if err != nil {
		log.Printf("Failed to read request count for %s: %v", userID, err)
		used = 0
	}

	resp := &dto.SubscriptionStatusResponse{
		Active:            sub.IsActive(),
		Tier:              string(tier),
		Status:            shared.SubscriptionStatusInactive,
		DailyRequestLimit: limit,
		RequestsUsedToday: used,
		RequestsRemaining: maxInt(0, limit-used),
	}
	if sub != nil {
		resp.Status = sub.Status
		resp.CurrentPeriodEnd = sub.CurrentPeriodEnd
		resp.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}
	return resp, nil
}

// Cancel flags the subscription to lapse at period end. Access continues
// until the period closes; the tier derivation handles the demotion.
func (svc *SubscriptionService) Cancel(userID string) (*model.Subscription, error) {
	sub, err := svc.sqlSvc.GetLatestSubscription(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if sub == nil {
		return nil, shared.ErrNotFound("No subscription found")
	}

	sub.CancelAtPeriodEnd = true
	if err := svc.sqlSvc.SaveSubscription(sub); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return sub, nil
}

// Activate provisions or extends a subscription. Payment webhooks land
// here once the gateway has verified them; the manual gateway covers
// admin provisioning.
func (svc *SubscriptionService) Activate(req dto.ActivateSubscriptionRequest) (*model.Subscription, error) {
	user, err := svc.sqlSvc.GetUser(req.UserID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if user == nil {
		return nil, shared.ErrNotFound("User not found")
	}

	days := req.Days
	if days <= 0 {
		days = 30
	}
	gateway := req.Gateway
	if gateway == "" {
		gateway = "manual"
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 0, days)

	sub, err := svc.sqlSvc.GetLatestSubscription(req.UserID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if sub == nil {
		sub = &model.Subscription{UserID: req.UserID}
	}

	sub.Gateway = gateway
	sub.Status = shared.SubscriptionStatusActive
	sub.Tier = string(ParseTier(req.Tier))
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &periodEnd
	sub.CancelAtPeriodEnd = false

	if err := svc.sqlSvc.SaveSubscription(sub); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"user_id": req.UserID,
		"tier":    sub.Tier,
		"gateway": gateway,
	}).Info("Subscription activated")

	return sub, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
