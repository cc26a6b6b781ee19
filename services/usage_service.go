package services

import (
	"fmt"
	"log"
	"time"

	"birdid/models"
	"birdid/repository"
)

// UsageStatus reports where a user stands against the daily identification
// quota after any pending day-rollover reset has been applied.
type UsageStatus struct {
	WithinLimit bool
	Used        int
	Limit       models.Limit
}

// UsageService is the usage ledger: it gates and tracks per-user daily
// identification usage and derives plan-based caps on stored history and
// sightings.
//
// Day boundaries are evaluated on the UTC calendar date. All operations return
// ErrUserNotFound when the user id does not exist.
type UsageService interface {
	// CheckDailyLimit reports whether the user is within the daily quota.
	// Contract note: if the stored last-identification date is not today's
	// UTC date, the check resets the counter to 0 and persists that reset as
	// part of the call. The lazy reset is part of the operation's contract,
	// not an implementation detail.
	CheckDailyLimit(userID uint) (*UsageStatus, error)

	// IncrementDailyCount adds one identification to today's count (or starts
	// a new day at 1) and stamps the last-identification time. Call at most
	// once per successful identification. Returns the new count.
	IncrementDailyCount(userID uint) (int, error)

	// ResetDailyCount unconditionally zeroes the counter and stamps now.
	ResetDailyCount(userID uint) error

	// EffectiveHistoryLimit derives the identification-history cap from the
	// user's effective plan.
	EffectiveHistoryLimit(userID uint) (models.Limit, error)

	// EffectiveSightingLimit derives the total-sightings cap from the user's
	// effective plan.
	EffectiveSightingLimit(userID uint) (models.Limit, error)
}

type usageService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewUsageService creates a new instance of UsageService.
func NewUsageService(userRepo repository.UserRepository) UsageService {
	return &usageService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// sameUTCDay reports whether two instants fall on the same UTC calendar date.
func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// getUser loads the user or fails with ErrUserNotFound.
func (s *usageService) getUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d for usage check: %w", userID, err)
	}
	if user == nil {
		log.Printf("WARN: [UsageService] User with ID %d not found.", userID)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CheckDailyLimit reports quota state, applying the lazy day-rollover reset.
func (s *usageService) CheckDailyLimit(userID uint) (*UsageStatus, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.LastIdentificationAt != nil && !sameUTCDay(*user.LastIdentificationAt, now) && user.DailyIdentifications != 0 {
		log.Printf("INFO: [UsageService] UTC day rolled over for userID %d, resetting daily count (was %d).", userID, user.DailyIdentifications)
		user.DailyIdentifications = 0
		if err := s.userRepo.UpdateUser(user); err != nil {
			return nil, fmt.Errorf("failed to persist day-rollover reset for user %d: %w", userID, err)
		}
	}

	limit := models.LimitsFor(user.EffectivePlan(now)).DailyIdentifications
	status := &UsageStatus{
		WithinLimit: limit.Allows(user.DailyIdentifications),
		Used:        user.DailyIdentifications,
		Limit:       limit,
	}
	log.Printf("INFO: [UsageService] Daily limit check for userID %d: used=%d limit=%d within=%t.",
		userID, status.Used, limit.Wire(), status.WithinLimit)
	return status, nil
}

// IncrementDailyCount bumps today's count, starting over on a new UTC day.
func (s *usageService) IncrementDailyCount(userID uint) (int, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	if user.LastIdentificationAt != nil && sameUTCDay(*user.LastIdentificationAt, now) {
		user.DailyIdentifications++
	} else {
		user.DailyIdentifications = 1
	}
	user.LastIdentificationAt = &now

	if err := s.userRepo.UpdateUser(user); err != nil {
		return 0, fmt.Errorf("failed to persist daily count for user %d: %w", userID, err)
	}
	log.Printf("INFO: [UsageService] Incremented daily count for userID %d to %d.", userID, user.DailyIdentifications)
	return user.DailyIdentifications, nil
}

// ResetDailyCount zeroes the counter and stamps the current time.
func (s *usageService) ResetDailyCount(userID uint) error {
	user, err := s.getUser(userID)
	if err != nil {
		return err
	}

	now := s.now()
	user.DailyIdentifications = 0
	user.LastIdentificationAt = &now

	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("failed to persist daily count reset for user %d: %w", userID, err)
	}
	log.Printf("INFO: [UsageService] Reset daily count for userID %d.", userID)
	return nil
}

// EffectiveHistoryLimit returns the identification-history cap for the user's
// effective plan.
func (s *usageService) EffectiveHistoryLimit(userID uint) (models.Limit, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return models.Limit{}, err
	}
	return models.LimitsFor(user.EffectivePlan(s.now())).IdentificationHistory, nil
}

// EffectiveSightingLimit returns the total-sightings cap for the user's
// effective plan.
func (s *usageService) EffectiveSightingLimit(userID uint) (models.Limit, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return models.Limit{}, err
	}
	return models.LimitsFor(user.EffectivePlan(s.now())).TotalSightings, nil
}
