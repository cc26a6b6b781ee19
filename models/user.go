package models

import "time"

// User is an account holding subscription state and the daily identification
// counter. The counter and its timestamp are owned by the usage service and
// must not be mutated elsewhere.
type User struct {
	ID                   uint       `gorm:"primarykey" json:"id"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	Plan                 PlanTier   `gorm:"type:varchar(20);default:'free';not null" json:"plan"`
	SubscriptionEndsAt   *time.Time `json:"subscriptionEndsAt,omitempty"`
	StripeCustomerID     string     `gorm:"index" json:"-"`
	DailyIdentifications int        `gorm:"default:0" json:"dailyIdentifications"`
	LastIdentificationAt *time.Time `json:"lastIdentificationAt,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// EffectivePlan returns the tier the user's limits should be derived from at
// time now. A premium subscription past its end date counts as free; the
// stored row is left untouched (no background downgrade job).
func (u *User) EffectivePlan(now time.Time) PlanTier {
	if u.Plan == PlanPremium {
		if u.SubscriptionEndsAt != nil && u.SubscriptionEndsAt.Before(now) {
			return PlanFree
		}
		return PlanPremium
	}
	return PlanFree
}
