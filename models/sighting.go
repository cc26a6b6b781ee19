package models

import "time"

// Sighting is a user-logged bird observation, optionally linked to the
// identification that produced it. Fully mutable by its owner until deleted.
type Sighting struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	UserID           uint       `gorm:"index;not null" json:"userId"`
	BirdName         string     `gorm:"not null" json:"birdName"`
	ScientificName   string     `json:"scientificName,omitempty"`
	Location         string     `json:"location,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	ImageURL         string     `gorm:"type:text" json:"imageUrl,omitempty"`
	IdentificationID *uint      `gorm:"index" json:"identificationId,omitempty"`
	SightedAt        time.Time  `gorm:"index" json:"sightedAt"`
	CapturedOffline  bool       `gorm:"default:false" json:"capturedOffline"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the Sighting model.
func (Sighting) TableName() string {
	return "sightings"
}
