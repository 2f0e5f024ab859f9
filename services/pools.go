package services

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcmanyika/cashround-sub000/models"
	"github.com/mcmanyika/cashround-sub000/utils"
)

// PoolService serves the mirrored pool tables. Ledger writes delegate to the
// sync service so tx-hash de-duplication lives in one place.
type PoolService struct {
	DB   *gorm.DB
	Sync *SyncService
}

func NewPoolService(db *gorm.DB, sync *SyncService) *PoolService {
	return &PoolService{DB: db, Sync: sync}
}

// PoolResponse is a pool row merged with its creator's username, null when
// the creator has no mirrored user row yet.
type PoolResponse struct {
	models.Pool
	CreatorUsername *string `json:"creator_username"`
}

const poolsWithCreatorSQL = `
	SELECT pools.*, users.username AS creator_username
	FROM pools
	LEFT JOIN users ON users.address = pools.creator_address`

// GetPools handles GET /api/pools, GET /api/pools?address= and
// GET /api/pools?creator=. The creator's username rides along via a single
// join rather than a per-row lookup.
func (s *PoolService) GetPools(c *fiber.Ctx) error {
	if address := c.Query("address"); address != "" {
		var pool PoolResponse
		res := s.DB.Raw(poolsWithCreatorSQL+" WHERE pools.address = ?", utils.NormalizeAddress(address)).Scan(&pool)
		if res.Error != nil {
			log.Printf("pool lookup failed for %s: %v", address, res.Error)
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch pool"})
		}
		if res.RowsAffected == 0 {
			return c.Status(404).JSON(fiber.Map{"error": "pool not found"})
		}
		return c.JSON(pool)
	}

	query := poolsWithCreatorSQL
	args := []interface{}{}
	if creator := c.Query("creator"); creator != "" {
		query += " WHERE pools.creator_address = ?"
		args = append(args, utils.NormalizeAddress(creator))
	}
	query += " ORDER BY pools.created_at DESC"

	pools := []PoolResponse{}
	if err := s.DB.Raw(query, args...).Scan(&pools).Error; err != nil {
		log.Printf("pool list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch pools"})
	}
	return c.JSON(pools)
}

// CreatePool handles POST /api/pools. All six fields are required; pointer
// fields distinguish absent from zero.
func (s *PoolService) CreatePool(c *fiber.Ctx) error {
	var req struct {
		Address        string   `json:"address"`
		CreatorAddress string   `json:"creator_address"`
		Size           *int     `json:"size"`
		Contribution   *float64 `json:"contribution"`
		RoundDuration  *int64   `json:"round_duration"`
		StartTime      *int64   `json:"start_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.Address == "" || req.CreatorAddress == "" ||
		req.Size == nil || req.Contribution == nil || req.RoundDuration == nil || req.StartTime == nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "address, creator_address, size, contribution, round_duration and start_time are required",
		})
	}
	if !utils.IsAddress(req.Address) || !utils.IsAddress(req.CreatorAddress) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid address"})
	}
	addr := utils.NormalizeAddress(req.Address)

	var count int64
	if err := s.DB.Model(&models.Pool{}).Where("address = ?", addr).Count(&count).Error; err != nil {
		log.Printf("pool existence check failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create pool"})
	}
	if count > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "pool already exists"})
	}

	pool := models.Pool{
		ID:             uuid.NewString(),
		Address:        addr,
		CreatorAddress: utils.NormalizeAddress(req.CreatorAddress),
		Size:           *req.Size,
		Contribution:   *req.Contribution,
		RoundDuration:  *req.RoundDuration,
		StartTime:      *req.StartTime,
		Status:         models.PoolStatusActive,
	}
	if err := s.DB.Create(&pool).Error; err != nil {
		log.Printf("pool insert failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create pool"})
	}
	return c.Status(201).JSON(pool)
}

// GetPoolMembers handles GET /api/pools/:address/members.
func (s *PoolService) GetPoolMembers(c *fiber.Ctx) error {
	addr := utils.NormalizeAddress(c.Params("address"))

	var count int64
	if err := s.DB.Model(&models.Pool{}).Where("address = ?", addr).Count(&count).Error; err != nil {
		log.Printf("pool existence check failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch members"})
	}
	if count == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "pool not found"})
	}

	var members []models.PoolMember
	if err := s.DB.Where("pool_address = ?", addr).Order("payout_order ASC").Find(&members).Error; err != nil {
		log.Printf("member list failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch members"})
	}
	return c.JSON(members)
}

// GetPoolLedger handles GET /api/pools/:address/ledger.
func (s *PoolService) GetPoolLedger(c *fiber.Ctx) error {
	addr := utils.NormalizeAddress(c.Params("address"))

	var contributions []models.PoolContribution
	if err := s.DB.Where("pool_address = ?", addr).Order("round ASC, created_at ASC").Find(&contributions).Error; err != nil {
		log.Printf("contribution list failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch ledger"})
	}

	var payouts []models.PoolPayout
	if err := s.DB.Where("pool_address = ?", addr).Order("round ASC, created_at ASC").Find(&payouts).Error; err != nil {
		log.Printf("payout list failed for %s: %v", addr, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch ledger"})
	}

	return c.JSON(fiber.Map{"contributions": contributions, "payouts": payouts})
}

// AddContribution handles POST /api/pools/:address/contributions.
func (s *PoolService) AddContribution(c *fiber.Ctx) error {
	var req struct {
		MemberAddress string   `json:"member_address"`
		Round         *int     `json:"round"`
		Amount        *float64 `json:"amount"`
		TxHash        *string  `json:"tx_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.MemberAddress == "" || req.Round == nil || req.Amount == nil {
		return c.Status(400).JSON(fiber.Map{"error": "member_address, round and amount are required"})
	}
	if !utils.IsAddress(req.MemberAddress) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid member_address"})
	}

	row, err := s.Sync.RecordContribution(c.Params("address"), LedgerInput{
		Address: req.MemberAddress,
		Round:   *req.Round,
		Amount:  *req.Amount,
		TxHash:  req.TxHash,
	})
	if err != nil {
		log.Printf("contribution insert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record contribution"})
	}
	return c.Status(201).JSON(row)
}

// AddPayout handles POST /api/pools/:address/payouts.
func (s *PoolService) AddPayout(c *fiber.Ctx) error {
	var req struct {
		RecipientAddress string   `json:"recipient_address"`
		Round            *int     `json:"round"`
		Amount           *float64 `json:"amount"`
		TxHash           *string  `json:"tx_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.RecipientAddress == "" || req.Round == nil || req.Amount == nil {
		return c.Status(400).JSON(fiber.Map{"error": "recipient_address, round and amount are required"})
	}
	if !utils.IsAddress(req.RecipientAddress) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid recipient_address"})
	}

	row, err := s.Sync.RecordPayout(c.Params("address"), LedgerInput{
		Address: req.RecipientAddress,
		Round:   *req.Round,
		Amount:  *req.Amount,
		TxHash:  req.TxHash,
	})
	if err != nil {
		log.Printf("payout insert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record payout"})
	}
	return c.Status(201).JSON(row)
}
