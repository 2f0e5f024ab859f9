package models

import "time"

// PoolContribution is an append-only ledger row for one member's contribution
// in one round. The unique index on tx_hash suppresses duplicate relays of the
// same transaction; rows without a hash are the caller's problem to de-dup.
type PoolContribution struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	PoolAddress   string    `json:"pool_address" gorm:"index;not null"`
	Round         int       `json:"round" gorm:"not null"`
	MemberAddress string    `json:"member_address" gorm:"not null"`
	Amount        float64   `json:"amount" gorm:"not null"`
	TxHash        *string   `json:"tx_hash,omitempty" gorm:"uniqueIndex"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PoolPayout records one rotation payout. Append-only, same tx_hash rule as
// contributions.
type PoolPayout struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	PoolAddress      string    `json:"pool_address" gorm:"index;not null"`
	Round            int       `json:"round" gorm:"not null"`
	RecipientAddress string    `json:"recipient_address" gorm:"not null"`
	Amount           float64   `json:"amount" gorm:"not null"`
	TxHash           *string   `json:"tx_hash,omitempty" gorm:"uniqueIndex"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}
