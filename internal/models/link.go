package models

import "time"

// MaxURLLength bounds originalUrl so the unique index fits every supported driver.
const MaxURLLength = 768

// ShortLink is the durable mapping from a short code to its original URL.
type ShortLink struct {
	ID uint `gorm:"primaryKey" json:"-"`

	// Code is immutable once created and never reassigned, see ShortCode.
	Code string `gorm:"uniqueIndex;size:10;not null" json:"code"`

	// OriginalURL is unique: a second registration returns the existing mapping.
	OriginalURL string `gorm:"uniqueIndex;size:768;not null" json:"longUrl"`

	// ShortURL is derived from the deployment origin and Code.
	ShortURL string `gorm:"size:1024;not null" json:"shortUrl"`

	// OwnerID is nil only for links created anonymously.
	OwnerID *string `gorm:"index;size:128" json:"-"`

	// Clicks is a side counter. Increments do not touch UpdatedAt.
	Clicks int64 `gorm:"not null;default:0" json:"clicks"`

	Title       string `gorm:"size:255" json:"title,omitempty"`
	Description string `gorm:"size:1024" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// OwnedBy reports whether ownerID owns the link. Anonymous links have no owner.
func (l *ShortLink) OwnedBy(ownerID string) bool {
	return l.OwnerID != nil && ownerID != "" && *l.OwnerID == ownerID
}

// ShortCode records every code ever issued. Rows are inserted in the same
// transaction as the ShortLink and are never deleted, so a code cannot be
// handed out again after its link is deleted.
type ShortCode struct {
	Code      string    `gorm:"primaryKey;size:10"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
