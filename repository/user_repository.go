package repository

import (
	"errors"
	"fmt"
	"log"

	"birdid/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(userID uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user in the database.
func (r *userRepository) CreateUser(user *models.User) error {
	if user == nil {
		log.Printf("ERROR: [UserRepository] CreateUser: user cannot be nil")
		return errors.New("user cannot be nil")
	}
	err := r.db.Create(user).Error
	if err != nil {
		log.Printf("ERROR: [UserRepository] Failed to create user '%s': %v", user.Email, err)
		return fmt.Errorf("failed to create user '%s': %w", user.Email, err)
	}
	log.Printf("INFO: [UserRepository] Successfully created user ID %d ('%s').", user.ID, user.Email)
	return nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when not found.
func (r *userRepository) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [UserRepository] User with ID %d not found.", userID)
			return nil, nil // Not found
		}
		log.Printf("ERROR: [UserRepository] Failed to retrieve user ID %d: %v", userID, err)
		return nil, fmt.Errorf("failed to retrieve user ID %d: %w", userID, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when not found.
func (r *userRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}
		log.Printf("ERROR: [UserRepository] Failed to retrieve user by email '%s': %v", email, err)
		return nil, fmt.Errorf("failed to retrieve user by email '%s': %w", email, err)
	}
	return &user, nil
}

// UpdateUser persists changes to an existing user.
func (r *userRepository) UpdateUser(user *models.User) error {
	if user == nil {
		log.Printf("ERROR: [UserRepository] UpdateUser: user cannot be nil")
		return errors.New("user cannot be nil")
	}
	if user.ID == 0 {
		log.Printf("ERROR: [UserRepository] UpdateUser: user ID must be provided for update")
		return errors.New("user ID must be provided for update")
	}
	err := r.db.Save(user).Error
	if err != nil {
		log.Printf("ERROR: [UserRepository] Failed to update user ID %d: %v", user.ID, err)
		return fmt.Errorf("failed to update user ID %d: %w", user.ID, err)
	}
	return nil
}
