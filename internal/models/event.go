package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event statuses.
const (
	EventStatusActive    = "Active"
	EventStatusDraft     = "Draft"
	EventStatusCancelled = "Cancelled"
	EventStatusSoldOut   = "Sold Out"
)

// Event is a ticketed happening created by an organizer or admin.
type Event struct {
	BaseModel
	Name        LocalizedText  `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Description LocalizedText  `gorm:"embedded;embeddedPrefix:description_" json:"description"`
	Venue       LocalizedText  `gorm:"embedded;embeddedPrefix:venue_" json:"venue"`
	Date        time.Time      `gorm:"index" json:"date"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Capacity    int            `json:"capacity"`
	TicketsSold int            `json:"tickets_sold"`
	Status      string         `gorm:"index" json:"status"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category      `json:"category,omitempty"`
	CreatedByID uuid.UUID      `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedBy   *User          `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Images      []EventImage   `json:"images,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// AvailableTickets returns the number of tickets still on sale.
func (e Event) AvailableTickets() int {
	left := e.Capacity - e.TicketsSold
	if left < 0 {
		return 0
	}
	return left
}

// IsValidEventStatus reports whether status is one of the known event statuses.
func IsValidEventStatus(status string) bool {
	switch status {
	case EventStatusActive, EventStatusDraft, EventStatusCancelled, EventStatusSoldOut:
		return true
	}
	return false
}

// EventImage is a hosted image attached to an event.
type EventImage struct {
	BaseModel
	EventID      uuid.UUID `gorm:"type:uuid;index" json:"event_id"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"display_order"`
}
