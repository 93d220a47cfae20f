package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

func newTestSubscription(t *testing.T) (*SubscriptionService, *SqliteService) {
	t.Helper()
	ds := newTestSqlite(t)
	svc := &SubscriptionService{
		sqlSvc:     ds,
		maxFree:    10,
		maxPremium: 25,
		maxPro:     60,
	}
	return svc, ds
}

func seedUser(t *testing.T, ds *SqliteService, email string) *model.User {
	t.Helper()
	user, err := ds.CreateUser(&model.User{Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedSubscription(t *testing.T, ds *SqliteService, userID, tier string, periodEnd time.Time, cancelAtPeriodEnd bool) {
	t.Helper()
	sub := &model.Subscription{
		UserID:            userID,
		Gateway:           "manual",
		Status:            shared.SubscriptionStatusActive,
		Tier:              tier,
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
	}
	if err := ds.SaveSubscription(sub); err != nil {
		t.Fatalf("failed to seed subscription: %v", err)
	}
}

func TestTierForNoSubscription(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "nosub@example.com")

	tier, err := svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFree {
		t.Errorf("tier = %s, want free", tier)
	}
}

func TestTierForActiveSubscription(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "premium@example.com")
	seedSubscription(t, ds, user.ID, shared.TierPremium, time.Now().Add(24*time.Hour), false)

	tier, err := svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierPremium {
		t.Errorf("tier = %s, want premium", tier)
	}
}

// A stored active status is not enough: a past period end silently
// demotes to free with no separate expiry job.
func TestTierForExpiredPeriodDemotes(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "expired@example.com")
	seedSubscription(t, ds, user.ID, shared.TierPro, time.Now().Add(-time.Hour), false)

	tier, err := svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFree {
		t.Errorf("tier = %s, want free after period end", tier)
	}
}

func TestTierForCancelledDemotes(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "cancelled@example.com")
	seedSubscription(t, ds, user.ID, shared.TierPremium, time.Now().Add(24*time.Hour), true)

	tier, err := svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFree {
		t.Errorf("tier = %s, want free after cancellation", tier)
	}
}

func TestDailyCeiling(t *testing.T) {
	svc, _ := newTestSubscription(t)

	cases := []struct {
		tier Tier
		want int
	}{
		{TierFree, 10},
		{TierPremium, 25},
		{TierPro, 60},
		{Tier("garbage"), 10},
	}
	for _, tc := range cases {
		if got := svc.DailyCeiling(tc.tier); got != tc.want {
			t.Errorf("DailyCeiling(%s) = %d, want %d", tc.tier, got, tc.want)
		}
	}
}

func TestRequireActiveWithoutSubscription(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "gated@example.com")

	_, err := svc.RequireActive(user.ID)
	if err == nil {
		t.Fatal("expected payment required error")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", appErr.StatusCode)
	}
}

func TestActivateThenCancel(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "lifecycle@example.com")

	sub, err := svc.Activate(dto.ActivateSubscriptionRequest{
		UserID:  user.ID,
		Tier:    shared.TierPro,
		Gateway: "manual",
		Days:    30,
	})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !sub.IsActive() {
		t.Error("subscription should be active after activation")
	}

	tier, err := svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierPro {
		t.Errorf("tier = %s, want pro", tier)
	}

	if _, err := svc.Cancel(user.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	tier, err = svc.TierFor(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tier != TierFree {
		t.Errorf("tier = %s, want free after cancel", tier)
	}
}

func TestStatusReportsQuota(t *testing.T) {
	svc, ds := newTestSubscription(t)
	user := seedUser(t, ds, "quota@example.com")
	seedSubscription(t, ds, user.ID, shared.TierPremium, time.Now().Add(24*time.Hour), false)

	identifier := RateLimitIdentifierForUser(user.ID)
	for i := 0; i < 3; i++ {
		if _, err := ds.IncrementRequestCount(identifier, DefaultRateLimitEndpoint, 24*time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	status, err := svc.Status(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Active {
		t.Error("status should report an active subscription")
	}
	if status.DailyRequestLimit != 25 {
		t.Errorf("limit = %d, want 25", status.DailyRequestLimit)
	}
	if status.RequestsUsedToday != 3 {
		t.Errorf("used = %d, want 3", status.RequestsUsedToday)
	}
	if status.RequestsRemaining != 22 {
		t.Errorf("remaining = %d, want 22", status.RequestsRemaining)
	}
}
