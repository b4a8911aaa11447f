package models

import "github.com/google/uuid"

// Category approval states.
const (
	CategoryPending  = "pending"
	CategoryApproved = "approved"
	CategoryRejected = "rejected"
)

type Category struct {
	BaseModel
	Name            LocalizedText `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Status          string        `gorm:"index" json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedByID     uuid.UUID     `gorm:"type:uuid;index" json:"created_by_id"`
}
