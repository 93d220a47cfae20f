package services

import (
	"testing"
	"time"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

func TestGetUsageAggregates(t *testing.T) {
	ds := newTestSqlite(t)
	subSvc := &SubscriptionService{sqlSvc: ds, maxFree: 10, maxPremium: 25, maxPro: 60}
	svc := &UsageService{sqlSvc: ds, subSvc: subSvc}

	user := seedUser(t, ds, "usage@example.com")
	seedSubscription(t, ds, user.ID, shared.TierPremium, time.Now().Add(24*time.Hour), false)

	now := time.Now()
	records := []model.UsageRecord{
		{UserID: user.ID, Endpoint: shared.EndpointHintsGenerate, Method: "POST", Status: 200, Timestamp: now},
		{UserID: user.ID, Endpoint: shared.EndpointHintsGenerate, Method: "POST", Status: 200, Timestamp: now.Add(-time.Minute)},
		{UserID: user.ID, Endpoint: shared.EndpointHintsExplain, Method: "POST", Status: 200, Timestamp: now},
		// Another user's traffic must not bleed in.
		{UserID: "someone-else", Endpoint: shared.EndpointHintsGenerate, Method: "POST", Status: 200, Timestamp: now},
	}
	for i := range records {
		if err := ds.RecordUsage(&records[i]); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := ds.IncrementRequestCount(RateLimitIdentifierForUser(user.ID), DefaultRateLimitEndpoint, 24*time.Hour); err != nil {
		t.Fatal(err)
	}

	usage, err := svc.GetUsage(user.ID)
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}

	byEndpoint := make(map[string]int64)
	for _, d := range usage.Today {
		byEndpoint[d.Endpoint] = d.Count
	}
	if byEndpoint[shared.EndpointHintsGenerate] != 2 {
		t.Errorf("generate count = %d, want 2", byEndpoint[shared.EndpointHintsGenerate])
	}
	if byEndpoint[shared.EndpointHintsExplain] != 1 {
		t.Errorf("explain count = %d, want 1", byEndpoint[shared.EndpointHintsExplain])
	}

	if usage.DailyRequestLimit != 25 {
		t.Errorf("limit = %d, want 25", usage.DailyRequestLimit)
	}
	if usage.RequestsRemaining != 24 {
		t.Errorf("remaining = %d, want 24", usage.RequestsRemaining)
	}

	if len(usage.Month) == 0 {
		t.Error("month aggregation should include today")
	}
}

func TestFavoritesFreeTierCap(t *testing.T) {
	ds := newTestSqlite(t)
	subSvc := &SubscriptionService{sqlSvc: ds, maxFree: 10, maxPremium: 25, maxPro: 60}
	svc := &FavoritesService{sqlSvc: ds, subSvc: subSvc}

	user := seedUser(t, ds, "collector@example.com")
	seedSubscription(t, ds, user.ID, shared.TierFree, time.Now().Add(24*time.Hour), false)

	for i := 0; i < freeTierFavoritesLimit; i++ {
		fav := model.Favorite{
			UserID:    user.ID,
			ProblemID: "p" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			URL:       "https://example.com",
			Title:     "Problem",
			Platform:  shared.PlatformLeetCode,
			AddedAt:   time.Now(),
		}
		if err := ds.SaveFavorite(&fav); err != nil {
			t.Fatal(err)
		}
	}

	_, err := svc.Add(user.ID, dto.AddFavoriteRequest{
		ProblemID: "one-too-many",
		URL:       "https://example.com/extra",
		Title:     "Extra",
		Platform:  shared.PlatformLeetCode,
	})
	if err == nil {
		t.Fatal("expected the free tier cap to reject the add")
	}

	// Re-adding an existing favorite refreshes it without hitting the cap.
	if _, err := svc.Add(user.ID, dto.AddFavoriteRequest{
		ProblemID: "paa",
		URL:       "https://example.com/updated",
		Title:     "Problem Updated",
		Platform:  shared.PlatformLeetCode,
	}); err != nil {
		t.Errorf("re-add should bypass the cap: %v", err)
	}
}
