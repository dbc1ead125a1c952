package models

import "time"

// ClickEvent is one recorded visit to a code's redirect endpoint.
// It references the link by code so events outlive the link they belong to.
type ClickEvent struct {
	ID uint `gorm:"primaryKey" json:"-"`

	Code string `gorm:"index;size:10;not null" json:"code"`

	// OccurredAt is set when the visit is recorded, not when it is persisted.
	OccurredAt time.Time `gorm:"index;not null" json:"occurredAt"`

	// Best effort, empty when the request did not carry them.
	UserAgent string `gorm:"size:255" json:"userAgent,omitempty"`
	IPAddress string `gorm:"size:50" json:"ipAddress,omitempty"`
}
