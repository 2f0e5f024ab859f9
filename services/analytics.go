package services

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mcmanyika/cashround-sub000/models"
	"github.com/mcmanyika/cashround-sub000/utils"
)

// AnalyticsService aggregates the mirror tables on the read side. Every
// aggregate runs as its own query against the current table snapshot; there
// is no caching layer.
type AnalyticsService struct {
	DB    *gorm.DB
	Price *PriceClient
}

func NewAnalyticsService(db *gorm.DB, price *PriceClient) *AnalyticsService {
	return &AnalyticsService{DB: db, Price: price}
}

type UserAnalytics struct {
	User              models.User           `json:"user"`
	PoolsJoined       int64                 `json:"pools_joined"`
	PoolsCreated      int64                 `json:"pools_created"`
	ContributionCount int64                 `json:"contribution_count"`
	TotalContributed  float64               `json:"total_contributed"`
	PayoutCount       int64                 `json:"payout_count"`
	TotalReceived     float64               `json:"total_received"`
	DirectReferrals   int64                 `json:"direct_referrals"`
	TokenPriceUSD     float64               `json:"token_price_usd"`
	EarningsUSD       float64               `json:"earnings_usd"`
	RecentActivity    []models.UserActivity `json:"recent_activity"`
}

type PoolAnalytics struct {
	Pool             models.Pool         `json:"pool"`
	MemberCount      int64               `json:"member_count"`
	TotalContributed float64             `json:"total_contributed"`
	TotalPaidOut     float64             `json:"total_paid_out"`
	ExpectedPerRound float64             `json:"expected_per_round"`
	Members          []models.PoolMember `json:"members"`
}

// TopPool is one row of the overview's member-count leaderboard.
type TopPool struct {
	Address     string `json:"address"`
	Size        int    `json:"size"`
	Status      string `json:"status"`
	MemberCount int64  `json:"member_count"`
}

type OverviewAnalytics struct {
	TotalUsers       int64                 `json:"totalUsers"`
	TotalPools       int64                 `json:"totalPools"`
	ActivePools      int64                 `json:"activePools"`
	TotalMembers     int64                 `json:"totalMembers"`
	RecentActivities []models.UserActivity `json:"recentActivities"`
	TopPools         []TopPool             `json:"topPools"`
}

// GetAnalytics handles GET /api/analytics?type=user|pool|overview.
func (s *AnalyticsService) GetAnalytics(c *fiber.Ctx) error {
	switch c.Query("type") {
	case "user":
		address := c.Query("address")
		if address == "" {
			return c.Status(400).JSON(fiber.Map{"error": "address is required for user analytics"})
		}
		res, err := s.UserAnalytics(c.Context(), address)
		if err != nil {
			log.Printf("user analytics failed for %s: %v", address, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to compute analytics"})
		}
		if res == nil {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.JSON(res)

	case "pool":
		address := c.Query("address")
		if address == "" {
			return c.Status(400).JSON(fiber.Map{"error": "address is required for pool analytics"})
		}
		res, err := s.PoolAnalytics(address)
		if err != nil {
			log.Printf("pool analytics failed for %s: %v", address, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to compute analytics"})
		}
		if res == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pool not found"})
		}
		return c.JSON(res)

	case "overview":
		res, err := s.Overview()
		if err != nil {
			log.Printf("overview analytics failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to compute analytics"})
		}
		return c.JSON(res)

	default:
		return c.Status(400).JSON(fiber.Map{"error": "type must be user, pool or overview"})
	}
}

// UserAnalytics aggregates one user's mirrored footprint. Returns nil when
// the user row is absent.
func (s *AnalyticsService) UserAnalytics(ctx context.Context, address string) (*UserAnalytics, error) {
	addr := utils.NormalizeAddress(address)

	var user models.User
	err := s.DB.First(&user, "address = ?", addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := &UserAnalytics{User: user}

	if err := s.DB.Model(&models.PoolMember{}).Where("member_address = ?", addr).Count(&res.PoolsJoined).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Pool{}).Where("creator_address = ?", addr).Count(&res.PoolsCreated).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolContribution{}).Where("member_address = ?", addr).Count(&res.ContributionCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolContribution{}).Where("member_address = ?", addr).
		Select("COALESCE(SUM(amount), 0)").Scan(&res.TotalContributed).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolPayout{}).Where("recipient_address = ?", addr).Count(&res.PayoutCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolPayout{}).Where("recipient_address = ?", addr).
		Select("COALESCE(SUM(amount), 0)").Scan(&res.TotalReceived).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Referral{}).Where("referrer_address = ?", addr).Count(&res.DirectReferrals).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Where("user_address = ?", addr).Order("created_at DESC").Limit(10).Find(&res.RecentActivity).Error; err != nil {
		return nil, err
	}

	// Best-effort USD conversion; a dead oracle still yields the fallback rate.
	if s.Price != nil {
		quote := s.Price.Quote(ctx)
		res.TokenPriceUSD = quote.USD
		res.EarningsUSD = user.TotalEarnings * quote.USD
	}

	return res, nil
}

// PoolAnalytics aggregates one pool's mirrored state. Returns nil when the
// pool row is absent.
func (s *AnalyticsService) PoolAnalytics(address string) (*PoolAnalytics, error) {
	addr := utils.NormalizeAddress(address)

	var pool models.Pool
	err := s.DB.First(&pool, "address = ?", addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := &PoolAnalytics{
		Pool:             pool,
		ExpectedPerRound: float64(pool.Size) * pool.Contribution,
	}

	if err := s.DB.Model(&models.PoolMember{}).Where("pool_address = ?", addr).Count(&res.MemberCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolContribution{}).Where("pool_address = ?", addr).
		Select("COALESCE(SUM(amount), 0)").Scan(&res.TotalContributed).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.PoolPayout{}).Where("pool_address = ?", addr).
		Select("COALESCE(SUM(amount), 0)").Scan(&res.TotalPaidOut).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Where("pool_address = ?", addr).Order("payout_order ASC").Find(&res.Members).Error; err != nil {
		return nil, err
	}

	return res, nil
}

// Overview computes the platform-wide dashboard numbers.
func (s *AnalyticsService) Overview() (*OverviewAnalytics, error) {
	res := &OverviewAnalytics{}

	if err := s.DB.Model(&models.User{}).Count(&res.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Pool{}).Count(&res.TotalPools).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Pool{}).Where("status = ?", models.PoolStatusActive).Count(&res.ActivePools).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Where("is_member = ?", true).Count(&res.TotalMembers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Order("created_at DESC").Limit(10).Find(&res.RecentActivities).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Raw(`
		SELECT pools.address, pools.size, pools.status, COUNT(pool_members.id) AS member_count
		FROM pools
		LEFT JOIN pool_members ON pool_members.pool_address = pools.address
		GROUP BY pools.address, pools.size, pools.status
		ORDER BY member_count DESC
		LIMIT 5`).Scan(&res.TopPools).Error; err != nil {
		return nil, err
	}

	return res, nil
}
