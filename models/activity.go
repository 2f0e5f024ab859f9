package models

import "time"

// UserActivity is a free-form audit trail row. Fire-and-forget writes, no
// retention policy.
type UserActivity struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserAddress  string    `json:"user_address" gorm:"index;not null"`
	ActivityType string    `json:"activity_type" gorm:"not null"`
	Details      string    `json:"details" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}
