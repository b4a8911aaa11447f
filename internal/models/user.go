package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user may hold.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleOrganizer  = "organizer"
	RoleUser       = "user"
)

// Two-factor delivery methods.
const (
	TwoFactorEmail = "email"
	TwoFactorPhone = "phone"
)

// User represents an account of any role.
type User struct {
	BaseModel
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               string     `gorm:"uniqueIndex" json:"email"`
	Phone               string     `gorm:"index" json:"phone"`
	PhoneVerified       bool       `json:"phone_verified"`
	PasswordHash        string     `json:"-"`
	Role                string     `gorm:"index;default:user" json:"role"`
	IsBlocked           bool       `json:"is_blocked"`
	Language            string     `json:"language"`
	LastPhoneChangeDate *time.Time `json:"last_phone_change_date"`
	DailyOTPCount       int        `gorm:"column:daily_otp_count" json:"daily_otp_count"`
	LastOTPDate         *time.Time `gorm:"column:last_otp_date" json:"last_otp_date"`
	TwoFactorEnabled    bool       `json:"two_factor_enabled"`
	TwoFactorMethod     string     `json:"two_factor_method"`
	Wishlist            []Event    `gorm:"many2many:user_wishlist;" json:"wishlist,omitempty"`
	Following           []User     `gorm:"many2many:user_following;joinForeignKey:FollowerID;joinReferences:OrganizerID" json:"following,omitempty"`
	// Deleted accounts keep their row so bookings and the ledger still resolve.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user holds an administrative role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}
