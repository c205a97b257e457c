// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post statuses. Inactive posts stay out of public listings but remain
// reachable by their owner.
const (
	PostStatusActive   = "active"
	PostStatusInactive = "inactive"
)

// Post is a published blog entry. FeaturedFileID references the stored file
// shown in listings and on the detail page; it is empty only for legacy rows,
// new posts always carry one.
type Post struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Title          string `gorm:"not null" json:"title"`
	Slug           string `gorm:"uniqueIndex;not null" json:"slug"`
	Content        string `gorm:"type:text" json:"content"`
	Status         string `gorm:"not null;default:active" json:"status"`
	UserID         uint   `gorm:"not null;index" json:"user_id"`
	User           User   `gorm:"foreignKey:UserID" json:"user"`
	FeaturedFileID string `gorm:"index" json:"featured_file_id,omitempty"`
	// FeaturedImageURL is not persisted; derived from FeaturedFileID at read time
	FeaturedImageURL string         `gorm:"-" json:"featured_image_url,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidPostStatus reports whether s is one of the known post statuses.
func ValidPostStatus(s string) bool {
	return s == PostStatusActive || s == PostStatusInactive
}
