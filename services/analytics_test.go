package services_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/mcmanyika/cashround-sub000/models"
	"github.com/mcmanyika/cashround-sub000/services"
)

func seedAnalyticsFixture(t *testing.T, env *testEnv) {
	t.Helper()

	username := "maker"
	rows := []interface{}{
		&models.User{ID: "u1", Address: userAddr, IsMember: true, TotalEarnings: 4},
		&models.User{ID: "u2", Address: creatorAddr, IsMember: true, Username: &username},
		&models.User{ID: "u3", Address: "0x3333333333333333333333333333333333333333"},
		&models.Pool{ID: "p1", Address: poolAddrA, CreatorAddress: creatorAddr,
			Size: 3, Contribution: 5, RoundDuration: 604800, StartTime: 1900000000,
			Status: models.PoolStatusActive},
		&models.Pool{ID: "p2", Address: poolAddrB, CreatorAddress: creatorAddr,
			Size: 2, Contribution: 20, RoundDuration: 604800, StartTime: 1800000000,
			Status: models.PoolStatusCompleted},
		&models.PoolMember{ID: "m1", PoolAddress: poolAddrA, MemberAddress: userAddr, PayoutOrder: 0},
		&models.PoolMember{ID: "m2", PoolAddress: poolAddrA, MemberAddress: creatorAddr, PayoutOrder: 1},
		&models.PoolContribution{ID: "c1", PoolAddress: poolAddrA, Round: 1, MemberAddress: userAddr, Amount: 5},
		&models.PoolContribution{ID: "c2", PoolAddress: poolAddrA, Round: 2, MemberAddress: userAddr, Amount: 5},
		&models.PoolPayout{ID: "y1", PoolAddress: poolAddrA, Round: 1, RecipientAddress: userAddr, Amount: 15},
		&models.Referral{ID: "r1", ReferrerAddress: userAddr, ReferredAddress: creatorAddr, Level: 1},
		&models.UserActivity{ID: "a1", UserAddress: userAddr, ActivityType: "pool_joined"},
	}
	for _, row := range rows {
		if err := env.db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}

func TestUserAnalytics(t *testing.T) {
	env := newTestEnv(t)
	seedAnalyticsFixture(t, env)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/analytics?type=user&address="+userAddr, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got services.UserAnalytics
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.PoolsJoined != 1 || got.PoolsCreated != 0 {
		t.Errorf("pool counts wrong: %+v", got)
	}
	if got.ContributionCount != 2 || got.TotalContributed != 10 {
		t.Errorf("contribution aggregate wrong: %+v", got)
	}
	if got.PayoutCount != 1 || got.TotalReceived != 15 {
		t.Errorf("payout aggregate wrong: %+v", got)
	}
	if got.DirectReferrals != 1 {
		t.Errorf("referral count wrong: %+v", got)
	}
	if len(got.RecentActivity) != 1 {
		t.Errorf("recent activity wrong: %+v", got.RecentActivity)
	}
	// No oracle URLs in the test client, so the fallback rate applies.
	if got.TokenPriceUSD != 2.0 || got.EarningsUSD != 8 {
		t.Errorf("USD conversion wrong: price=%v earnings=%v", got.TokenPriceUSD, got.EarningsUSD)
	}
}

func TestUserAnalyticsNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/analytics?type=user&address="+userAddr, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPoolAnalytics(t *testing.T) {
	env := newTestEnv(t)
	seedAnalyticsFixture(t, env)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/analytics?type=pool&address="+poolAddrA, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got services.PoolAnalytics
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.MemberCount != 2 || len(got.Members) != 2 {
		t.Errorf("member aggregate wrong: %+v", got)
	}
	if got.TotalContributed != 10 || got.TotalPaidOut != 15 {
		t.Errorf("ledger aggregate wrong: %+v", got)
	}
	if got.ExpectedPerRound != 15 {
		t.Errorf("expected_per_round = size * contribution, got %v", got.ExpectedPerRound)
	}
}

func TestOverviewAnalytics(t *testing.T) {
	env := newTestEnv(t)
	seedAnalyticsFixture(t, env)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/analytics?type=overview", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got services.OverviewAnalytics
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.TotalUsers != 3 || got.TotalPools != 2 {
		t.Errorf("totals wrong: %+v", got)
	}
	if got.ActivePools != 1 {
		t.Errorf("active pools should count only status=active, got %d", got.ActivePools)
	}
	if got.TotalMembers != 2 {
		t.Errorf("total members should count is_member users, got %d", got.TotalMembers)
	}
	if len(got.TopPools) != 2 || got.TopPools[0].Address != poolAddrA || got.TopPools[0].MemberCount != 2 {
		t.Errorf("top pools leaderboard wrong: %+v", got.TopPools)
	}
}

func TestAnalyticsBadType(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/analytics",
		"/api/analytics?type=bogus",
		"/api/analytics?type=user",
		"/api/analytics?type=pool",
	} {
		resp, err := env.app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestUserAnalyticsDirect(t *testing.T) {
	env := newTestEnv(t)
	seedAnalyticsFixture(t, env)

	svc := services.NewAnalyticsService(env.db, nil)
	got, err := svc.UserAnalytics(context.Background(), userAddr)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got == nil {
		t.Fatal("expected a result")
	}
	// Without an oracle the USD figures stay zeroed.
	if got.TokenPriceUSD != 0 || got.EarningsUSD != 0 {
		t.Errorf("USD figures should be zero without a price client: %+v", got)
	}
}
