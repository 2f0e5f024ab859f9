package models

import "time"

const (
	PoolStatusActive    = "active"
	PoolStatusCompleted = "completed"
	PoolStatusCancelled = "cancelled"
)

// Pool mirrors an on-chain MUKANDO pool contract. current_round only moves
// when a re-sync reads it from the chain; there is no local advancement.
type Pool struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	Address        string  `json:"address" gorm:"uniqueIndex;not null"`
	CreatorAddress string  `json:"creator_address" gorm:"index;not null"`
	Size           int     `json:"size" gorm:"not null"`
	Contribution   float64 `json:"contribution" gorm:"not null"` // per-round amount in token units
	RoundDuration  int64   `json:"round_duration" gorm:"not null"` // seconds
	StartTime      int64   `json:"start_time" gorm:"not null"`     // unix epoch
	CurrentRound   int     `json:"current_round" gorm:"default:0"`
	Status         string  `json:"status" gorm:"default:'active'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PoolMember is one slot in a pool's payout rotation. The (pool, member) pair
// is unique; PayoutOrder is the 0-based position in the rotation.
type PoolMember struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	PoolAddress   string    `json:"pool_address" gorm:"uniqueIndex:idx_pool_member;not null"`
	MemberAddress string    `json:"member_address" gorm:"uniqueIndex:idx_pool_member;not null"`
	PayoutOrder   int       `json:"payout_order" gorm:"not null"`
	JoinedAt      time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
