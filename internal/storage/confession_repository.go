package storage

import (
	"fmt"

	"slack-confessions/internal/identity"
	"slack-confessions/internal/models"

	"gorm.io/gorm"
)

// ConfessionRepository handles database operations for Confession
type ConfessionRepository struct {
	db *gorm.DB
}

// NewConfessionRepository creates a new ConfessionRepository
func NewConfessionRepository(db *gorm.DB) *ConfessionRepository {
	return &ConfessionRepository{db: db}
}

// MigrateTable ensures the Confession table exists
func (r *ConfessionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Confession{})
}

// Create inserts a new unapproved, unviewed Confession. The submitter
// identity is hashed with a fresh salt; the raw value is not persisted.
func (r *ConfessionRepository) Create(text, submitterID string) (*models.Confession, error) {
	salt, err := identity.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	hash, err := identity.Digest(submitterID, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	record := &models.Confession{
		Text:    text,
		UIDSalt: salt,
		UIDHash: hash,
	}
	if err := r.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return record, nil
}

// GetByStagingTS returns the unique record carrying the given staging
// message timestamp. Zero matches is ErrNotFound; more than one means the
// uniqueness invariant is broken and is surfaced as ErrConsistency.
func (r *ConfessionRepository) GetByStagingTS(stagingTS string) (*models.Confession, error) {
	var records []models.Confession
	result := r.db.Where("staging_ts = ?", stagingTS).Limit(2).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, result.Error)
	}
	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: staging_ts=%s", ErrNotFound, stagingTS)
	case 1:
		return &records[0], nil
	default:
		return nil, fmt.Errorf("%w: multiple records for staging_ts=%s", ErrConsistency, stagingTS)
	}
}

// Update applies a partial update to the record with the given id.
func (r *ConfessionRepository) Update(id uint, fields map[string]interface{}) error {
	result := r.db.Model(&models.Confession{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrWrite, result.Error)
	}
	return nil
}

// Delete removes the record with the given id. Only used to roll back a
// submission whose staging message could not be posted.
func (r *ConfessionRepository) Delete(id uint) error {
	result := r.db.Delete(&models.Confession{}, id)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrWrite, result.Error)
	}
	return nil
}

// SameSubmitter reports whether submitterID is the identity that created
// the record, using the record's stored salt and digest.
func (r *ConfessionRepository) SameSubmitter(record *models.Confession, submitterID string) bool {
	return identity.Matches(submitterID, record.UIDSalt, record.UIDHash)
}
