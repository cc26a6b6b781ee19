package repository

import (
	"errors"
	"fmt"
	"log"

	"birdid/models"

	"gorm.io/gorm"
)

// SightingRepository defines the interface for interacting with sighting data.
type SightingRepository interface {
	CreateSighting(sighting *models.Sighting) error
	GetSightingByID(sightingID uint) (*models.Sighting, error)
	// GetSightingsByUserID returns the user's sightings newest first, truncated
	// to the given plan limit.
	GetSightingsByUserID(userID uint, limit models.Limit) ([]*models.Sighting, error)
	CountByUserID(userID uint) (int64, error)
	UpdateSighting(sighting *models.Sighting) error
	DeleteSighting(sightingID uint) error
}

type sightingRepository struct {
	db *gorm.DB
}

// NewSightingRepository creates a new instance of SightingRepository.
func NewSightingRepository(db *gorm.DB) SightingRepository {
	return &sightingRepository{db: db}
}

// CreateSighting persists a new sighting.
func (r *sightingRepository) CreateSighting(sighting *models.Sighting) error {
	if sighting == nil {
		log.Printf("ERROR: [SightingRepository] CreateSighting: sighting cannot be nil")
		return errors.New("sighting cannot be nil")
	}
	if sighting.UserID == 0 {
		log.Printf("ERROR: [SightingRepository] CreateSighting: sighting must belong to a user (UserID is 0)")
		return errors.New("sighting must belong to a user")
	}
	err := r.db.Create(sighting).Error
	if err != nil {
		log.Printf("ERROR: [SightingRepository] Failed to create sighting '%s' for userID %d: %v", sighting.BirdName, sighting.UserID, err)
		return fmt.Errorf("failed to create sighting '%s' for userID %d: %w", sighting.BirdName, sighting.UserID, err)
	}
	log.Printf("INFO: [SightingRepository] Successfully created sighting ID %d ('%s') for userID %d.", sighting.ID, sighting.BirdName, sighting.UserID)
	return nil
}

// GetSightingByID retrieves one sighting. Returns (nil, nil) when not found.
func (r *sightingRepository) GetSightingByID(sightingID uint) (*models.Sighting, error) {
	var sighting models.Sighting
	err := r.db.First(&sighting, sightingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [SightingRepository] Sighting with ID %d not found.", sightingID)
			return nil, nil // Not found
		}
		log.Printf("ERROR: [SightingRepository] Failed to retrieve sighting ID %d: %v", sightingID, err)
		return nil, fmt.Errorf("failed to retrieve sighting ID %d: %w", sightingID, err)
	}
	return &sighting, nil
}

// GetSightingsByUserID retrieves all sightings for a user, newest first,
// capped by the plan limit.
func (r *sightingRepository) GetSightingsByUserID(userID uint, limit models.Limit) ([]*models.Sighting, error) {
	var sightings []*models.Sighting
	query := r.db.Where("user_id = ?", userID).Order("sighted_at desc, id desc")
	if !limit.Unbounded {
		query = query.Limit(limit.N)
	}
	err := query.Find(&sightings).Error
	if err != nil {
		log.Printf("ERROR: [SightingRepository] Failed to retrieve sightings for userID %d: %v", userID, err)
		return nil, fmt.Errorf("failed to retrieve sightings for userID %d: %w", userID, err)
	}
	log.Printf("INFO: [SightingRepository] Retrieved %d sightings for userID %d.", len(sightings), userID)
	return sightings, nil
}

// CountByUserID returns the total number of stored sightings for a user.
func (r *sightingRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Sighting{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		log.Printf("ERROR: [SightingRepository] Failed to count sightings for userID %d: %v", userID, err)
		return 0, fmt.Errorf("failed to count sightings for userID %d: %w", userID, err)
	}
	return count, nil
}

// UpdateSighting persists changes to an existing sighting.
func (r *sightingRepository) UpdateSighting(sighting *models.Sighting) error {
	if sighting == nil {
		log.Printf("ERROR: [SightingRepository] UpdateSighting: sighting cannot be nil")
		return errors.New("sighting cannot be nil")
	}
	if sighting.ID == 0 {
		log.Printf("ERROR: [SightingRepository] UpdateSighting: sighting ID must be provided for update")
		return errors.New("sighting ID must be provided for update")
	}
	err := r.db.Save(sighting).Error
	if err != nil {
		log.Printf("ERROR: [SightingRepository] Failed to update sighting ID %d: %v", sighting.ID, err)
		return fmt.Errorf("failed to update sighting ID %d: %w", sighting.ID, err)
	}
	log.Printf("INFO: [SightingRepository] Successfully updated sighting ID %d.", sighting.ID)
	return nil
}

// DeleteSighting permanently removes a sighting.
func (r *sightingRepository) DeleteSighting(sightingID uint) error {
	err := r.db.Delete(&models.Sighting{}, sightingID).Error
	if err != nil {
		log.Printf("ERROR: [SightingRepository] Failed to delete sighting ID %d: %v", sightingID, err)
		return fmt.Errorf("failed to delete sighting ID %d: %w", sightingID, err)
	}
	log.Printf("INFO: [SightingRepository] Successfully deleted sighting ID %d.", sightingID)
	return nil
}
