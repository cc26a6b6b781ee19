package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"birdid/config"
	"birdid/services"
	"birdid/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// maxWebhookBodyBytes caps how much of a webhook payload is read.
const maxWebhookBodyBytes = int64(65536)

// CheckoutRequest is the body of POST /api/subscription/checkout.
type CheckoutRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// CreateCheckoutSessionHandler starts a premium upgrade checkout and returns
// the provider's hosted payment URL.
func (h *APIHandler) CreateCheckoutSessionHandler(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	url, err := h.subscriptionService.CreateCheckoutSession(req.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to start checkout.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// StripeWebhookHandler verifies and processes payment provider events.
// Only checkout.session.completed is acted upon; everything else is
// acknowledged and ignored.
func (h *APIHandler) StripeWebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Failed to read webhook payload.", err)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.AppConfig.Stripe.WebhookSecret)
	if err != nil {
		log.Printf("WARN: [API] Rejected webhook with invalid signature: %v", err)
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid webhook signature.", err)
		return
	}

	if event.Type != "checkout.session.completed" {
		log.Printf("INFO: [API] Ignoring webhook event of type '%s'.", event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Malformed checkout session payload.", err)
		return
	}
	userID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
	if err != nil || userID == 0 {
		log.Printf("ERROR: [API] Checkout session %s carries no usable client reference ID ('%s').", session.ID, session.ClientReferenceID)
		utils.SendJSONError(c, http.StatusBadRequest, "Checkout session is missing a user reference.", err)
		return
	}

	var customerID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if _, err := h.subscriptionService.ActivatePremium(uint(userID), customerID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to activate subscription.", err)
		return
	}

	log.Printf("INFO: [API] Premium activated for userID %d via checkout session %s.", userID, session.ID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CancelSubscriptionHandler lets the user's current premium period lapse.
func (h *APIHandler) CancelSubscriptionHandler(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	user, err := h.subscriptionService.CancelSubscription(req.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to cancel subscription.", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SubscriptionStatusHandler reports a user's plan, expiry and limits.
func (h *APIHandler) SubscriptionStatusHandler(c *gin.Context) {
	userID, ok := utils.ParseUintParam(c, "userID")
	if !ok {
		return
	}
	status, err := h.subscriptionService.GetStatus(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch subscription status.", err)
		return
	}
	c.JSON(http.StatusOK, status)
}
