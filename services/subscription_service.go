package services

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"birdid/config"
	"birdid/models"
	"birdid/repository"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

// premiumPeriod is how long one paid period keeps the premium plan active.
const premiumPeriod = 31 * 24 * time.Hour

// SubscriptionService handles the premium upgrade flow against the payment
// provider and derives subscription status. The provider's billing engine
// stays external; this service only creates checkout sessions and reacts to
// completed ones.
type SubscriptionService interface {
	// CreateCheckoutSession returns the payment provider's hosted checkout URL
	// for upgrading the user to premium.
	CreateCheckoutSession(userID uint) (string, error)

	// ActivatePremium marks the user premium for one paid period. Called from
	// the webhook handler once the provider confirms checkout completion.
	ActivatePremium(userID uint, stripeCustomerID string) (*models.User, error)

	// CancelSubscription lets the current period lapse: the stored plan stays
	// premium but the end date is stamped to now, so limit derivation treats
	// the user as free from here on.
	CancelSubscription(userID uint) (*models.User, error)

	// GetStatus reports the user's plan, expiry and effective limits.
	GetStatus(userID uint) (*models.SubscriptionStatusResponse, error)
}

type subscriptionService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewSubscriptionService creates a new instance of SubscriptionService and
// wires the Stripe API key from config.
func NewSubscriptionService(userRepo repository.UserRepository) SubscriptionService {
	stripe.Key = config.AppConfig.Stripe.SecretKey
	return &subscriptionService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *subscriptionService) getUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d for subscription operation: %w", userID, err)
	}
	if user == nil {
		log.Printf("WARN: [SubscriptionService] User with ID %d not found.", userID)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateCheckoutSession builds a Stripe checkout session for the premium plan.
func (s *subscriptionService) CreateCheckoutSession(userID uint) (string, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return "", err
	}
	stripeCfg := config.AppConfig.Stripe
	if stripe.Key == "" || stripeCfg.PremiumPriceID == "" {
		log.Printf("ERROR: [SubscriptionService] Stripe is not configured, cannot create checkout session for userID %d.", userID)
		return "", fmt.Errorf("payment provider is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(stripeCfg.PremiumPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(stripeCfg.SuccessURL),
		CancelURL:         stripe.String(stripeCfg.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(userID), 10)),
		CustomerEmail:     stripe.String(user.Email),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("ERROR: [SubscriptionService] Failed to create checkout session for userID %d: %v", userID, err)
		return "", fmt.Errorf("failed to create checkout session for userID %d: %w", userID, err)
	}

	log.Printf("INFO: [SubscriptionService] Created checkout session %s for userID %d.", sess.ID, userID)
	return sess.URL, nil
}

// ActivatePremium upgrades the user after a confirmed checkout.
func (s *subscriptionService) ActivatePremium(userID uint, stripeCustomerID string) (*models.User, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	endsAt := s.now().Add(premiumPeriod)
	user.Plan = models.PlanPremium
	user.SubscriptionEndsAt = &endsAt
	if stripeCustomerID != "" {
		user.StripeCustomerID = stripeCustomerID
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to activate premium for user %d: %w", userID, err)
	}
	log.Printf("INFO: [SubscriptionService] Activated premium for userID %d until %s.", userID, endsAt.Format(time.RFC3339))
	return user, nil
}

// CancelSubscription stamps the subscription end to now so the plan lapses.
func (s *subscriptionService) CancelSubscription(userID uint) (*models.User, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Plan != models.PlanPremium {
		log.Printf("INFO: [SubscriptionService] UserID %d has no premium subscription to cancel.", userID)
		return user, nil
	}

	now := s.now()
	user.SubscriptionEndsAt = &now
	if err := s.userRepo.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to cancel subscription for user %d: %w", userID, err)
	}
	log.Printf("INFO: [SubscriptionService] Cancelled subscription for userID %d.", userID)
	return user, nil
}

// GetStatus reports the plan and effective limits for a user.
func (s *subscriptionService) GetStatus(userID uint) (*models.SubscriptionStatusResponse, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	effective := user.EffectivePlan(s.now())
	return &models.SubscriptionStatusResponse{
		UserID:             user.ID,
		Plan:               effective,
		SubscriptionEndsAt: user.SubscriptionEndsAt,
		Limits:             models.LimitsFor(effective),
	}, nil
}
