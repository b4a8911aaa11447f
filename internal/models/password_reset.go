package models

import "time"

// PasswordResetToken tracks a forgot-password code sent by email.
type PasswordResetToken struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	CodeHash  string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	Attempts  int        `json:"-"`
	UsedAt    *time.Time `json:"used_at"`
}
