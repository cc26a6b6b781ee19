package repository

import (
	"errors"
	"fmt"
	"log"

	"birdid/models"

	"gorm.io/gorm"
)

// IdentificationRepository defines the interface for interacting with
// persisted identification records.
type IdentificationRepository interface {
	CreateIdentification(identification *models.Identification) error
	GetIdentificationByID(identificationID uint) (*models.Identification, error)
	// GetRecentByUserID returns the user's identifications newest first,
	// truncated to the given plan limit. Records beyond the limit are only
	// hidden from this query, never deleted.
	GetRecentByUserID(userID uint, limit models.Limit) ([]*models.Identification, error)
	CountByUserID(userID uint) (int64, error)
}

type identificationRepository struct {
	db *gorm.DB
}

// NewIdentificationRepository creates a new instance of IdentificationRepository.
func NewIdentificationRepository(db *gorm.DB) IdentificationRepository {
	return &identificationRepository{db: db}
}

// CreateIdentification persists a new identification record.
func (r *identificationRepository) CreateIdentification(identification *models.Identification) error {
	if identification == nil {
		log.Printf("ERROR: [IdentificationRepository] CreateIdentification: identification cannot be nil")
		return errors.New("identification cannot be nil")
	}
	err := r.db.Create(identification).Error
	if err != nil {
		log.Printf("ERROR: [IdentificationRepository] Failed to create identification: %v", err)
		return fmt.Errorf("failed to create identification: %w", err)
	}
	log.Printf("INFO: [IdentificationRepository] Successfully created identification ID %d ('%s').",
		identification.ID, identification.Result.MainBird.Name)
	return nil
}

// GetIdentificationByID retrieves one record. Returns (nil, nil) when not found.
func (r *identificationRepository) GetIdentificationByID(identificationID uint) (*models.Identification, error) {
	var identification models.Identification
	err := r.db.First(&identification, identificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [IdentificationRepository] Identification with ID %d not found.", identificationID)
			return nil, nil // Not found
		}
		log.Printf("ERROR: [IdentificationRepository] Failed to retrieve identification ID %d: %v", identificationID, err)
		return nil, fmt.Errorf("failed to retrieve identification ID %d: %w", identificationID, err)
	}
	return &identification, nil
}

// GetRecentByUserID retrieves the newest identifications for a user, capped by
// the plan's history limit.
func (r *identificationRepository) GetRecentByUserID(userID uint, limit models.Limit) ([]*models.Identification, error) {
	var identifications []*models.Identification
	query := r.db.Where("user_id = ?", userID).Order("created_at desc, id desc")
	if !limit.Unbounded {
		query = query.Limit(limit.N)
	}
	err := query.Find(&identifications).Error
	if err != nil {
		log.Printf("ERROR: [IdentificationRepository] Failed to retrieve identifications for userID %d: %v", userID, err)
		return nil, fmt.Errorf("failed to retrieve identifications for userID %d: %w", userID, err)
	}
	log.Printf("INFO: [IdentificationRepository] Retrieved %d identifications for userID %d.", len(identifications), userID)
	return identifications, nil
}

// CountByUserID returns the total number of stored identifications for a user,
// independent of any history limit.
func (r *identificationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Identification{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		log.Printf("ERROR: [IdentificationRepository] Failed to count identifications for userID %d: %v", userID, err)
		return 0, fmt.Errorf("failed to count identifications for userID %d: %w", userID, err)
	}
	return count, nil
}
