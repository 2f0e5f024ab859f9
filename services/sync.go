package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcmanyika/cashround-sub000/chain"
	"github.com/mcmanyika/cashround-sub000/models"
	"github.com/mcmanyika/cashround-sub000/utils"
)

// ChainReader is the read surface of the contract accessor the sync service
// depends on. chain.Client satisfies it; tests substitute a fake.
type ChainReader interface {
	IsMember(ctx context.Context, addr common.Address) (bool, error)
	ReferralInfo(ctx context.Context, addr common.Address) (chain.ReferralInfo, error)
	AllPools(ctx context.Context) ([]common.Address, error)
	PoolInfo(ctx context.Context, pool common.Address) (chain.PoolInfo, error)
	PoolMembers(ctx context.Context, pool common.Address) ([]common.Address, error)
	TokenBalance(ctx context.Context, addr common.Address) (float64, error)
}

// SyncService pulls current on-chain state and upserts it into the mirror
// tables. Every operation is idempotent at the row level (upsert by natural
// key) but nothing is atomic across operations; the mirror is a disposable
// read cache, never the source of truth.
type SyncService struct {
	DB    *gorm.DB
	Chain ChainReader
}

func NewSyncService(db *gorm.DB, reader ChainReader) *SyncService {
	return &SyncService{DB: db, Chain: reader}
}

// PoolSyncResult reports one pool's outcome inside a SyncAllPools batch.
type PoolSyncResult struct {
	Address string `json:"address"`
	Error   string `json:"error,omitempty"`
}

// LedgerInput carries one caller-relayed contribution or payout row.
type LedgerInput struct {
	Address string
	Round   int
	Amount  float64
	TxHash  *string
}

// SyncUser ensures a user row exists and refreshes its membership flag,
// referral count and earnings from the chain. Concurrent calls for the same
// address race harmlessly: both write the same contract read, last one wins.
func (s *SyncService) SyncUser(ctx context.Context, address string) (*models.User, error) {
	addr := utils.NormalizeAddress(address)
	if !utils.IsAddress(addr) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	account := common.HexToAddress(addr)

	member, err := s.Chain.IsMember(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("membership check for %s: %w", addr, err)
	}

	info, err := s.Chain.ReferralInfo(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("referral info for %s: %w", addr, err)
	}

	user := models.User{
		ID:            uuid.NewString(),
		Address:       addr,
		IsMember:      member,
		ReferralCount: info.DirectCount,
		TotalEarnings: info.TotalEarned,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_member", "referral_count", "total_earnings", "updated_at"}),
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", addr, err)
	}

	// Mirror the inviter edge when the tree reports one. The level is stored
	// exactly as the contract reports it; the mirror never walks the tree.
	if info.Referrer != (common.Address{}) {
		edge := models.Referral{
			ID:              uuid.NewString(),
			ReferrerAddress: utils.NormalizeAddress(info.Referrer.Hex()),
			ReferredAddress: addr,
			Level:           info.Level,
		}
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referred_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"referrer_address", "level"}),
		}).Create(&edge).Error; err != nil {
			return nil, fmt.Errorf("upsert referral edge for %s: %w", addr, err)
		}
	}

	var fresh models.User
	if err := s.DB.First(&fresh, "address = ?", addr).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

// SyncPool reads the pool's aggregate parameters from the chain, inserts the
// row if absent or refreshes only its rotation progress otherwise, then
// always re-syncs the member list.
func (s *SyncService) SyncPool(ctx context.Context, address string) (*models.Pool, error) {
	addr := utils.NormalizeAddress(address)
	if !utils.IsAddress(addr) {
		return nil, fmt.Errorf("invalid pool address %q", address)
	}
	poolAddr := common.HexToAddress(addr)

	info, err := s.Chain.PoolInfo(ctx, poolAddr)
	if err != nil {
		return nil, fmt.Errorf("pool info for %s: %w", addr, err)
	}

	status := models.PoolStatusActive
	if !info.Active {
		status = models.PoolStatusCompleted
	}

	var pool models.Pool
	err = s.DB.First(&pool, "address = ?", addr).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		pool = models.Pool{
			ID:             uuid.NewString(),
			Address:        addr,
			CreatorAddress: utils.NormalizeAddress(info.Creator.Hex()),
			Size:           info.Size,
			Contribution:   info.Contribution,
			RoundDuration:  info.RoundDuration,
			StartTime:      info.StartTime,
			CurrentRound:   info.CurrentRound,
			Status:         status,
		}
		if err := s.DB.Create(&pool).Error; err != nil {
			return nil, fmt.Errorf("insert pool %s: %w", addr, err)
		}
	case err != nil:
		return nil, err
	default:
		// Static parameters are immutable on-chain; only rotation state moves.
		if err := s.DB.Model(&pool).Updates(map[string]interface{}{
			"current_round": info.CurrentRound,
			"status":        status,
		}).Error; err != nil {
			return nil, fmt.Errorf("update pool %s: %w", addr, err)
		}
	}

	members, err := s.Chain.PoolMembers(ctx, poolAddr)
	if err != nil {
		return nil, fmt.Errorf("pool members for %s: %w", addr, err)
	}
	order := make([]string, len(members))
	for i, m := range members {
		order[i] = utils.NormalizeAddress(m.Hex())
	}
	if err := s.SyncPoolMembers(ctx, addr, order); err != nil {
		return nil, err
	}

	return &pool, nil
}

// SyncPoolMembers replaces the pool's payout rotation with the given order,
// position-as-rank. Runs as a single transaction that upserts present members
// and prunes absent ones, so a concurrent reader never observes the
// transiently empty member list a delete-then-insert would expose.
func (s *SyncService) SyncPoolMembers(ctx context.Context, poolAddress string, order []string) error {
	addr := utils.NormalizeAddress(poolAddress)

	normalized := make([]string, len(order))
	for i, member := range order {
		normalized[i] = utils.NormalizeAddress(member)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, member := range normalized {
			row := models.PoolMember{
				ID:            uuid.NewString(),
				PoolAddress:   addr,
				MemberAddress: member,
				PayoutOrder:   i,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "pool_address"}, {Name: "member_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"payout_order"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("upsert member %s of pool %s: %w", member, addr, err)
			}
		}

		q := tx.Where("pool_address = ?", addr)
		if len(normalized) > 0 {
			q = q.Where("member_address NOT IN ?", normalized)
		}
		if err := q.Delete(&models.PoolMember{}).Error; err != nil {
			return fmt.Errorf("prune members of pool %s: %w", addr, err)
		}
		return nil
	})
}

// SyncAllPools enumerates every pool the factory knows and syncs each one.
// One bad pool must not abort the batch: failures are recorded per pool and
// the loop keeps going.
func (s *SyncService) SyncAllPools(ctx context.Context) ([]PoolSyncResult, error) {
	pools, err := s.Chain.AllPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate pools: %w", err)
	}

	results := make([]PoolSyncResult, 0, len(pools))
	for _, p := range pools {
		addr := utils.NormalizeAddress(p.Hex())
		res := PoolSyncResult{Address: addr}
		if _, err := s.SyncPool(ctx, addr); err != nil {
			log.Printf("[SYNC] ⚠️ pool %s failed: %v", addr, err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

// TrackActivity appends an audit-trail row. Fire-and-forget: failures are
// logged and reported as false, never propagated.
func (s *SyncService) TrackActivity(address, activityType, details string) bool {
	row := models.UserActivity{
		ID:           uuid.NewString(),
		UserAddress:  utils.NormalizeAddress(address),
		ActivityType: activityType,
		Details:      details,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		log.Printf("[ACTIVITY] ⚠️ failed to record %s for %s: %v", activityType, address, err)
		return false
	}
	return true
}

// RecordContribution appends a contribution ledger row relayed by the
// frontend after a confirmed transaction. Rows carrying a tx hash are
// de-duplicated on it; hashless rows are the caller's problem.
func (s *SyncService) RecordContribution(poolAddress string, in LedgerInput) (*models.PoolContribution, error) {
	row := models.PoolContribution{
		ID:            uuid.NewString(),
		PoolAddress:   utils.NormalizeAddress(poolAddress),
		Round:         in.Round,
		MemberAddress: utils.NormalizeAddress(in.Address),
		Amount:        in.Amount,
		TxHash:        in.TxHash,
	}

	q := s.DB
	if in.TxHash != nil {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		})
	}
	if err := q.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("record contribution for %s: %w", row.PoolAddress, err)
	}
	return &row, nil
}

// RecordPayout appends a payout ledger row. Same tx-hash rule as
// RecordContribution.
func (s *SyncService) RecordPayout(poolAddress string, in LedgerInput) (*models.PoolPayout, error) {
	row := models.PoolPayout{
		ID:               uuid.NewString(),
		PoolAddress:      utils.NormalizeAddress(poolAddress),
		Round:            in.Round,
		RecipientAddress: utils.NormalizeAddress(in.Address),
		Amount:           in.Amount,
		TxHash:           in.TxHash,
	}

	q := s.DB
	if in.TxHash != nil {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		})
	}
	if err := q.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("record payout for %s: %w", row.PoolAddress, err)
	}
	return &row, nil
}

// SyncUserEndpoint handles POST /api/sync/user.
func (s *SyncService) SyncUserEndpoint(c *fiber.Ctx) error {
	var req struct {
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil || req.Address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "address is required"})
	}
	if !utils.IsAddress(req.Address) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid address"})
	}

	user, err := s.SyncUser(c.Context(), req.Address)
	if err != nil {
		log.Printf("[SYNC] ❌ user sync failed for %s: %v", req.Address, err)
		return c.Status(500).JSON(fiber.Map{"error": "user sync failed"})
	}
	return c.JSON(user)
}

// SyncPoolEndpoint handles POST /api/sync/pool.
func (s *SyncService) SyncPoolEndpoint(c *fiber.Ctx) error {
	var req struct {
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil || req.Address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "address is required"})
	}
	if !utils.IsAddress(req.Address) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid address"})
	}

	pool, err := s.SyncPool(c.Context(), req.Address)
	if err != nil {
		log.Printf("[SYNC] ❌ pool sync failed for %s: %v", req.Address, err)
		return c.Status(500).JSON(fiber.Map{"error": "pool sync failed"})
	}
	return c.JSON(pool)
}

// SyncAllPoolsEndpoint handles POST /api/sync/pools.
func (s *SyncService) SyncAllPoolsEndpoint(c *fiber.Ctx) error {
	results, err := s.SyncAllPools(c.Context())
	if err != nil {
		log.Printf("[SYNC] ❌ pool enumeration failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "pool enumeration failed"})
	}

	synced, failed := 0, 0
	for _, r := range results {
		if r.Error == "" {
			synced++
		} else {
			failed++
		}
	}
	return c.JSON(fiber.Map{"synced": synced, "failed": failed, "results": results})
}

// TrackActivityEndpoint handles POST /api/activity.
func (s *SyncService) TrackActivityEndpoint(c *fiber.Ctx) error {
	var req struct {
		UserAddress  string `json:"userAddress"`
		ActivityType string `json:"activityType"`
		Details      string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.UserAddress == "" || req.ActivityType == "" {
		return c.Status(400).JSON(fiber.Map{"error": "userAddress and activityType are required"})
	}

	s.TrackActivity(req.UserAddress, req.ActivityType, req.Details)
	return c.JSON(fiber.Map{"message": "Activity tracked"})
}
