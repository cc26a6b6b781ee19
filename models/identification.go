package models

import "time"

// Identification is one persisted identification request. Records are
// immutable after creation; plan history limits only hide older records from
// default queries, they never delete them.
type Identification struct {
	ID        uint                 `gorm:"primarykey" json:"id"`
	UserID    *uint                `gorm:"index" json:"userId,omitempty"` // nil for anonymous requests
	ImageURL  string               `gorm:"type:text" json:"imageUrl"`
	Result    IdentificationResult `gorm:"serializer:json" json:"result"`
	CreatedAt time.Time            `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName specifies the table name for the Identification model.
func (Identification) TableName() string {
	return "identifications"
}
