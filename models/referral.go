package models

import "time"

// Referral is a denormalized edge of the on-chain referral tree: who invited
// whom. Uniqueness is enforced on the referred side only: an address has one
// inviter, an inviter has many referred. Level is stored exactly as the
// referral contract reports it; this layer never walks the tree itself.
type Referral struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	ReferrerAddress string    `json:"referrer_address" gorm:"index;not null"`
	ReferredAddress string    `json:"referred_address" gorm:"uniqueIndex;not null"`
	Level           int       `json:"level" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}
