package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"birdid/models"
	"birdid/repository"
)

// SightingService manages user-logged sightings, enforcing the plan's
// total-sightings cap on creation and ownership on mutation.
type SightingService interface {
	CreateSighting(sighting *models.Sighting) (*models.Sighting, error)
	GetSighting(sightingID uint) (*models.Sighting, error)
	GetSightingsForUser(userID uint) ([]*models.Sighting, error)
	UpdateSighting(sightingID uint, userID uint, updated *models.Sighting) (*models.Sighting, error)
	DeleteSighting(sightingID uint, userID uint) error
}

type sightingService struct {
	sightingRepo repository.SightingRepository
	usageService UsageService
}

// NewSightingService creates a new instance of SightingService.
func NewSightingService(sightingRepo repository.SightingRepository, usageService UsageService) SightingService {
	return &sightingService{
		sightingRepo: sightingRepo,
		usageService: usageService,
	}
}

// CreateSighting stores a new sighting if the user's plan still has room.
func (s *sightingService) CreateSighting(sighting *models.Sighting) (*models.Sighting, error) {
	if sighting == nil {
		return nil, errors.New("sighting cannot be nil")
	}
	if sighting.UserID == 0 {
		log.Printf("WARN: [SightingService] CreateSighting called without a userID.")
		return nil, errors.New("sighting must belong to a user")
	}
	if sighting.BirdName == "" {
		return nil, errors.New("bird name cannot be empty")
	}

	limit, err := s.usageService.EffectiveSightingLimit(sighting.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.sightingRepo.CountByUserID(sighting.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sightings for userID %d: %w", sighting.UserID, err)
	}
	if !limit.Allows(int(count)) {
		log.Printf("WARN: [SightingService] UserID %d has reached the sighting cap (%d stored, limit %d).",
			sighting.UserID, count, limit.Wire())
		return nil, ErrLimitExceeded
	}

	if sighting.SightedAt.IsZero() {
		sighting.SightedAt = time.Now()
	}
	if err := s.sightingRepo.CreateSighting(sighting); err != nil {
		return nil, err
	}
	log.Printf("INFO: [SightingService] Created sighting ID %d ('%s') for userID %d.", sighting.ID, sighting.BirdName, sighting.UserID)
	return sighting, nil
}

// GetSighting retrieves one sighting.
func (s *sightingService) GetSighting(sightingID uint) (*models.Sighting, error) {
	sighting, err := s.sightingRepo.GetSightingByID(sightingID)
	if err != nil {
		return nil, err
	}
	if sighting == nil {
		return nil, ErrSightingNotFound
	}
	return sighting, nil
}

// GetSightingsForUser lists the user's sightings, newest first, capped by the
// plan's sighting limit. Premium plans see everything.
func (s *sightingService) GetSightingsForUser(userID uint) ([]*models.Sighting, error) {
	limit, err := s.usageService.EffectiveSightingLimit(userID)
	if err != nil {
		return nil, err
	}
	return s.sightingRepo.GetSightingsByUserID(userID, limit)
}

// UpdateSighting applies the mutable fields of `updated` to an existing
// sighting after verifying ownership.
func (s *sightingService) UpdateSighting(sightingID uint, userID uint, updated *models.Sighting) (*models.Sighting, error) {
	if updated == nil {
		return nil, errors.New("updated sighting cannot be nil")
	}
	sighting, err := s.sightingRepo.GetSightingByID(sightingID)
	if err != nil {
		return nil, err
	}
	if sighting == nil {
		log.Printf("WARN: [SightingService] Sighting with ID %d not found for update attempt by userID %d.", sightingID, userID)
		return nil, ErrSightingNotFound
	}
	if sighting.UserID != userID {
		log.Printf("WARN: [SightingService] Unauthorized attempt by userID %d to update sighting ID %d (belongs to userID %d).",
			userID, sightingID, sighting.UserID)
		return nil, ErrNotOwner
	}

	if updated.BirdName != "" {
		sighting.BirdName = updated.BirdName
	}
	sighting.ScientificName = updated.ScientificName
	sighting.Location = updated.Location
	sighting.Latitude = updated.Latitude
	sighting.Longitude = updated.Longitude
	sighting.Notes = updated.Notes
	sighting.ImageURL = updated.ImageURL
	sighting.CapturedOffline = updated.CapturedOffline
	if !updated.SightedAt.IsZero() {
		sighting.SightedAt = updated.SightedAt
	}

	if err := s.sightingRepo.UpdateSighting(sighting); err != nil {
		return nil, err
	}
	log.Printf("INFO: [SightingService] Updated sighting ID %d for userID %d.", sightingID, userID)
	return sighting, nil
}

// DeleteSighting removes a sighting after verifying ownership.
func (s *sightingService) DeleteSighting(sightingID uint, userID uint) error {
	sighting, err := s.sightingRepo.GetSightingByID(sightingID)
	if err != nil {
		return err
	}
	if sighting == nil {
		log.Printf("WARN: [SightingService] Sighting with ID %d not found for delete attempt by userID %d.", sightingID, userID)
		return ErrSightingNotFound
	}
	if sighting.UserID != userID {
		log.Printf("WARN: [SightingService] Unauthorized attempt by userID %d to delete sighting ID %d (belongs to userID %d).",
			userID, sightingID, sighting.UserID)
		return ErrNotOwner
	}
	return s.sightingRepo.DeleteSighting(sightingID)
}
