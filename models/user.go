package models

import "time"

// User is a local snapshot of a wallet address seen by the platform.
// Rows are created on first sighting (API call or sync) and refreshed by the
// sync service from the referral contract; they are never deleted. The chain
// is the source of truth; this table is a disposable read cache.
type User struct {
	ID            string  `json:"id" gorm:"primaryKey"`
	Address       string  `json:"address" gorm:"uniqueIndex;not null"` // lowercase hex, primary lookup key
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	IsMember      bool    `json:"is_member" gorm:"default:false"`
	ReferralCount int     `json:"referral_count" gorm:"default:0"`
	TotalEarnings float64 `json:"total_earnings" gorm:"default:0"` // referral earnings in token units

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
