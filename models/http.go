package models

import "time"

// InitResponse is returned by /api/init with the caller's plan and usage
// state. Limit fields use the wire convention: -1 means unbounded.
type InitResponse struct {
	UserID         uint       `json:"userId"`
	Plan           PlanTier   `json:"plan"`
	UsedToday      int        `json:"usedToday"`
	DailyLimit     int        `json:"dailyLimit"`
	RemainingToday int        `json:"remainingToday"`
	Limits         PlanLimits `json:"limits"`
}

// IdentifyResponse is returned by /api/identify.
type IdentifyResponse struct {
	Identification *Identification       `json:"identification,omitempty"`
	Result         *IdentificationResult `json:"result"`
	UsedToday      int                   `json:"usedToday"`
	DailyLimit     int                   `json:"dailyLimit"`
	RemainingToday int                   `json:"remainingToday"`
}

// SubscriptionStatusResponse is returned by /api/subscription/:userID.
type SubscriptionStatusResponse struct {
	UserID             uint       `json:"userId"`
	Plan               PlanTier   `json:"plan"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	Limits             PlanLimits `json:"limits"`
}
