package models

import "strconv"

// PlanTier identifies a subscription tier.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPremium PlanTier = "premium"
)

// UnlimitedSentinel is the wire representation of an unbounded limit. API
// consumers must treat it as "no cap", never as a literal value.
const UnlimitedSentinel = -1

// Limit is a plan cap that is either a finite count or unbounded. Keeping the
// two cases in one tagged value avoids comparing an "infinite" sentinel
// numerically against real counts.
type Limit struct {
	N         int
	Unbounded bool
}

// Bounded returns a finite limit of n.
func Bounded(n int) Limit {
	return Limit{N: n}
}

// Unlimited is the unbounded limit shared by all premium caps.
var Unlimited = Limit{Unbounded: true}

// Allows reports whether a current count of `used` is still under the limit.
// Unbounded allows any count.
func (l Limit) Allows(used int) bool {
	if l.Unbounded {
		return true
	}
	return used < l.N
}

// Wire returns the API-facing integer for this limit: the count for bounded
// limits, UnlimitedSentinel for unbounded ones.
func (l Limit) Wire() int {
	if l.Unbounded {
		return UnlimitedSentinel
	}
	return l.N
}

// MarshalJSON serializes the limit as its wire integer.
func (l Limit) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(l.Wire())), nil
}

// PlanLimits describes the caps and feature flags of a subscription tier.
type PlanLimits struct {
	DailyIdentifications  Limit `json:"identificationsPerDay"`
	IdentificationHistory Limit `json:"identificationHistory"`
	TotalSightings        Limit `json:"totalSightings"`
	FullBirdDatabase      bool  `json:"fullBirdDatabase"`
	OfflineAccess         bool  `json:"offlineAccess"`
	DetailedInfo          bool  `json:"detailedInfo"`
}

var planLimits = map[PlanTier]PlanLimits{
	PlanFree: {
		DailyIdentifications:  Bounded(5),
		IdentificationHistory: Bounded(3),
		TotalSightings:        Bounded(25),
	},
	PlanPremium: {
		DailyIdentifications:  Unlimited,
		IdentificationHistory: Unlimited,
		TotalSightings:        Unlimited,
		FullBirdDatabase:      true,
		OfflineAccess:         true,
		DetailedInfo:          true,
	},
}

// LimitsFor returns the static limits for a tier. Unknown tiers fall back to
// the free tier.
func LimitsFor(tier PlanTier) PlanLimits {
	if limits, ok := planLimits[tier]; ok {
		return limits
	}
	return planLimits[PlanFree]
}
