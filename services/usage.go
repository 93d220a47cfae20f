package services

import (
	"sort"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

type UsageService struct {
	context.DefaultService

	sqlSvc *SqliteService
	subSvc *SubscriptionService
}

const USAGE_SVC = "usage_svc"

func (svc UsageService) Id() string {
	return USAGE_SVC
}

func (svc *UsageService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.subSvc = svc.Service(SUBSCRIPTION_SVC).(*SubscriptionService)
	return nil
}

// TrackUsage records each completed request against the authenticated
// user. Recording is fire-and-forget, a tracking failure never turns
// into a client-visible error.
func (svc *UsageService) TrackUsage(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		userID, ok := c.Locals(shared.UserID).(string)
		if !ok || userID == "" {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil || status >= fiber.StatusBadRequest {
			return err
		}

		record := &model.UsageRecord{
			UserID:    userID,
			Endpoint:  endpoint,
			Method:    c.Method(),
			Status:    status,
			Timestamp: time.Now(),
		}
		go func() {
			if err := svc.sqlSvc.RecordUsage(record); err != nil {
				log.Printf("Failed to record usage for %s: %v", userID, err)
			}
		}()

		return err
	}
}

func (svc *UsageService) GetUsage(userID string) (*dto.UsageResponse, error) {
	now := time.Now()

	perEndpoint, err := svc.sqlSvc.DailyUsageByEndpoint(userID, now)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	daily := make([]dto.DailyUsage, 0, len(perEndpoint))
	for endpoint, count := range perEndpoint {
		daily = append(daily, dto.DailyUsage{Endpoint: endpoint, Count: count})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Endpoint < daily[j].Endpoint })

	perDay, err := svc.sqlSvc.MonthlyUsageByDay(userID, now.Year(), now.Month())
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	monthly := make([]dto.MonthlyUsage, 0, len(perDay))
	for _, d := range perDay {
		monthly = append(monthly, dto.MonthlyUsage{Date: d.Date, Count: d.Count})
	}

	tier, err := svc.subSvc.TierFor(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	limit := svc.subSvc.DailyCeiling(tier)

	used, err := svc.sqlSvc.CurrentRequestCount(RateLimitIdentifierForUser(userID), DefaultRateLimitEndpoint)
	if err != nil {
		log.Printf("Failed to read request count for %s: %v", userID, err)
		used = 0
	}

	return &dto.UsageResponse{
		Today:             daily,
		Month:             monthly,
		DailyRequestLimit: limit,
		RequestsRemaining: maxInt(0, limit-used),
	}, nil
}
