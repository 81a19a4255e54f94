package models

import "time"

// Confession stores one anonymous submission and its moderation outcome.
// A row is created on submission, annotated with the staging message
// timestamp once the review message is posted, and finalized exactly once
// when a moderator approves or disapproves it. Rows are kept as history.
type Confession struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Text     string `gorm:"type:text;not null"`
	Approved bool   `gorm:"default:false"`
	Viewed   bool   `gorm:"default:false"`

	// Slack message timestamps. StagingTS doubles as the correlation key
	// for moderation button clicks, so it must stay unique.
	StagingTS   string `gorm:"index;default:''"`
	PublishedTS string `gorm:"default:''"`

	// Salted digest of the submitter identity; the raw user ID is never
	// stored.
	UIDSalt string `gorm:"default:''"`
	UIDHash string `gorm:"type:varchar(128);default:''"`
}
