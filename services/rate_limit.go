package services

import (
	gocontext "context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

// DefaultRateLimitEndpoint is the logical counter shared by the hint and
// explanation routes; both draw from the same daily quota.
const DefaultRateLimitEndpoint = "hints"

// burstCounter is the fixed-window counter behind BurstRateLimit.
// RedisService provides it in production.
type burstCounter interface {
	IncrementWindow(ctx gocontext.Context, key string, ttl time.Duration) (int64, error)
}

type RateLimitService struct {
	context.DefaultService

	sqlSvc *SqliteService
	burst  burstCounter
	subSvc *SubscriptionService
	monSvc *MonitoringService

	windowDuration time.Duration

	burstWindow     time.Duration
	burstMaxFree    int
	burstMaxPremium int
	burstMaxPro     int
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.windowDuration = time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 86400)) * time.Second

	svc.burstWindow = time.Minute
	svc.burstMaxFree = envInt("BURST_LIMIT_MAX_FREE", 10)
	svc.burstMaxPremium = envInt("BURST_LIMIT_MAX_PREMIUM", 30)
	svc.burstMaxPro = envInt("BURST_LIMIT_MAX_PRO", 50)

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.burst = svc.Service(REDIS_SVC).(*RedisService)
	svc.subSvc = svc.Service(SUBSCRIPTION_SVC).(*SubscriptionService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

// RateLimitIdentifierForUser namespaces user counters apart from raw IPs.
func RateLimitIdentifierForUser(userID string) string {
	return "user:" + userID
}

func (svc *RateLimitService) identifierFor(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return RateLimitIdentifierForUser(userID)
	}
	return getClientIP(c)
}

// decide applies the inclusive-ceiling policy to a post-increment count.
func (svc *RateLimitService) decide(ceiling, newCount int) dto.RateLimitDecision {
	reset := time.Now().Add(svc.windowDuration).Unix()
	decision := dto.RateLimitDecision{
		Allowed:    newCount <= ceiling,
		Limit:      ceiling,
		Remaining:  maxInt(0, ceiling-newCount),
		ResetEpoch: reset,
	}
	if !decision.Allowed {
		decision.Remaining = 0
		decision.RetryAfter = int(svc.windowDuration.Seconds())
	}
	return decision
}

// PersistentRateLimit gates a route against the durable daily quota.
// Increment first, check after: two in-flight requests can never observe
// the same pre-increment count. Storage failures deny the request.
func (svc *RateLimitService) PersistentRateLimit(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := svc.identifierFor(c)

		tier := TierFree
		if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
			resolved, err := svc.subSvc.TierFor(userID)
			if err != nil {
				log.WithFields(log.Fields{
					"user_id": userID,
					"error":   err.Error(),
				}).Error("Tier lookup failed")
				return svc.failClosed(c, 0)
			}
			tier = resolved
		}
		ceiling := svc.subSvc.DailyCeiling(tier)

		newCount, err := svc.sqlSvc.IncrementRequestCount(identifier, endpoint, svc.windowDuration)
		if err != nil {
			log.WithFields(log.Fields{
				"identifier": identifier,
				"endpoint":   endpoint,
				"error":      err.Error(),
			}).Error("Rate limit increment failed")
			svc.monSvc.RecordRateLimitDecision(endpoint, "error")
			return svc.failClosed(c, ceiling)
		}

		decision := svc.decide(ceiling, newCount)
		svc.setRateLimitHeaders(c, decision)

		if !decision.Allowed {
			// Already counted; give the slot back so the denial does not
			// consume quota. A failed rollback self-heals at rollover.
			if rbErr := svc.sqlSvc.RollbackRequestCount(identifier, endpoint); rbErr != nil {
				log.Printf("Rate limit rollback error (non-fatal): %v", rbErr)
			}

			svc.monSvc.RecordRateLimitDecision(endpoint, "denied")
			return shared.ResponseJSON(c, http.StatusTooManyRequests, "Too Many Requests", fiber.Map{
				"message":           "Rate limit exceeded. You can make " + strconv.Itoa(ceiling) + " requests per day. Please try again tomorrow or upgrade your plan.",
				"limitType":         "daily",
				"retryAfter":        decision.RetryAfter,
				"requestsRemaining": 0,
				"resetAt":           time.Unix(decision.ResetEpoch, 0).UTC().Format(time.RFC3339),
			})
		}

		svc.monSvc.RecordRateLimitDecision(endpoint, "allowed")
		return c.Next()
	}
}

// BurstRateLimit is the light per-minute guard for cheap endpoints. It
// rides on Redis fixed windows instead of the durable store.
func (svc *RateLimitService) BurstRateLimit(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := svc.identifierFor(c)

		ceiling := svc.burstMaxFree
		if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
			if tier, err := svc.subSvc.TierFor(userID); err == nil {
				switch tier {
				case TierPremium:
					ceiling = svc.burstMaxPremium
				case TierPro:
					ceiling = svc.burstMaxPro
				case TierFree:
					ceiling = svc.burstMaxFree
				}
			}
		}

		key := burstKey(endpoint, identifier, time.Now())
		count, err := svc.burst.IncrementWindow(c.UserContext(), key, svc.burstWindow)
		if err != nil {
			log.Printf("Burst limit check error for %s (%s): %v", endpoint, identifier, err)
			return svc.failClosed(c, ceiling)
		}

		if int(count) > ceiling {
			c.Set("Retry-After", strconv.Itoa(int(svc.burstWindow.Seconds())))
			svc.monSvc.RecordRateLimitDecision(endpoint, "denied")
			return shared.ResponseJSON(c, http.StatusTooManyRequests, "Too Many Requests", fiber.Map{
				"message":    "Rate limit exceeded. Please try again later.",
				"retryAfter": int(svc.burstWindow.Seconds()),
			})
		}

		return c.Next()
	}
}

// burstKey buckets a counter into the minute containing now.
func burstKey(endpoint, identifier string, now time.Time) string {
	return "burst:" + endpoint + ":" + identifier + ":" + strconv.FormatInt(now.Unix()/60, 10)
}

// failClosed denies the request when the limiter cannot be consulted.
// The ceiling still goes out in the headers when it is known; remaining
// and reset are not knowable without the counter. Zero means unknown.
func (svc *RateLimitService) failClosed(c *fiber.Ctx, ceiling int) error {
	if ceiling > 0 {
		c.Set("X-RateLimit-Limit", strconv.Itoa(ceiling))
	}
	return shared.ResponseJSON(c, http.StatusServiceUnavailable, "Service Unavailable", fiber.Map{
		"message":    "Rate limit check failed. Please try again later.",
		"retryAfter": 60,
	})
}

func (svc *RateLimitService) setRateLimitHeaders(c *fiber.Ctx, decision dto.RateLimitDecision) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetEpoch, 10))
	if decision.RetryAfter > 0 {
		c.Set("Retry-After", strconv.Itoa(decision.RetryAfter))
	}
}

// ==================== ADMIN OPERATIONS ====================

func (svc *RateLimitService) CleanupOldRecords() error {
	deleted, err := svc.sqlSvc.CleanupExpiredWindows()
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("Rate limit cleanup removed %d expired windows", deleted)
	}
	return nil
}

func (svc *RateLimitService) ResetRateLimit(identifier, endpoint string) error {
	return svc.sqlSvc.DeleteRateLimit(identifier, endpoint)
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}
