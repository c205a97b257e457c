package models

import "time"

// StoredFile is the metadata record for an uploaded blob. The blob itself and
// its generated preview live in the configured file store under the file ID.
// A stored file is referenced by at most one post at a time; the reference is
// application-managed (last write wins) and cleanup on replace/delete is
// best-effort rather than transactional.
type StoredFile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}
