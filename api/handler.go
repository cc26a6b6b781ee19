package api

import (
	"errors"
	"log"
	"net/http"

	"birdid/models"
	"birdid/repository"
	"birdid/services"
	"birdid/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler holds all dependencies for API handlers, such as repositories and services.
type APIHandler struct {
	userRepo            repository.UserRepository
	identificationRepo  repository.IdentificationRepository
	usageService        services.UsageService
	normalizerService   services.NormalizerService
	identifyService     services.IdentifyService
	sightingService     services.SightingService
	subscriptionService services.SubscriptionService
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	userRepo repository.UserRepository,
	identificationRepo repository.IdentificationRepository,
	usageService services.UsageService,
	normalizerService services.NormalizerService,
	identifyService services.IdentifyService,
	sightingService services.SightingService,
	subscriptionService services.SubscriptionService,
) *APIHandler {
	return &APIHandler{
		userRepo:            userRepo,
		identificationRepo:  identificationRepo,
		usageService:        usageService,
		normalizerService:   normalizerService,
		identifyService:     identifyService,
		sightingService:     sightingService,
		subscriptionService: subscriptionService,
	}
}

// remainingQuota converts a limit and a current count into the wire "remaining"
// value: -1 for unbounded, never below 0 otherwise.
func remainingQuota(limit models.Limit, used int) int {
	if limit.Unbounded {
		return models.UnlimitedSentinel
	}
	remaining := limit.N - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateUserHandler provisions a new free-tier user.
func (h *APIHandler) CreateUserHandler(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	existing, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to create user.", err)
		return
	}
	if existing != nil {
		utils.SendJSONError(c, http.StatusConflict, "A user with this email already exists.", nil)
		return
	}

	user := &models.User{Email: req.Email, Plan: models.PlanFree}
	if err := h.userRepo.CreateUser(user); err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to create user.", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUserHandler returns one user.
func (h *APIHandler) GetUserHandler(c *gin.Context) {
	userID, ok := utils.ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch user.", err)
		return
	}
	if user == nil {
		utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
		return
	}
	c.JSON(http.StatusOK, user)
}

// InitHandler returns the caller's plan, usage and limits.
// Note: checking the daily limit applies the lazy day-rollover reset, so this
// endpoint may persist a zeroed counter as a side effect.
func (h *APIHandler) InitHandler(c *gin.Context) {
	userID, ok := utils.ParseUintQuery(c, "userID")
	if !ok {
		return
	}
	if userID == 0 {
		utils.SendJSONError(c, http.StatusBadRequest, "userID query parameter is required.", nil)
		return
	}

	status, err := h.usageService.CheckDailyLimit(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch usage status.", err)
		return
	}

	subscription, err := h.subscriptionService.GetStatus(userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch subscription status.", err)
		return
	}

	c.JSON(http.StatusOK, models.InitResponse{
		UserID:         userID,
		Plan:           subscription.Plan,
		UsedToday:      status.Used,
		DailyLimit:     status.Limit.Wire(),
		RemainingToday: remainingQuota(status.Limit, status.Used),
		Limits:         subscription.Limits,
	})
}

// IdentifyRequest is the body of POST /api/identify. Exactly one of Image and
// Description must be set. UserID is optional: anonymous identifications are
// allowed and skip the usage ledger. Save defaults to true; a false value skips
// persisting the record but still counts against the daily quota.
type IdentifyRequest struct {
	UserID      *uint  `json:"user_id"`
	Image       string `json:"image"`       // data URL or public URL
	Description string `json:"description"` // e.g. transcribed from an audio clip
	Save        *bool  `json:"save"`
}

// IdentifyHandler runs one identification request: quota check, AI call,
// normalization, persistence, counter increment.
func (h *APIHandler) IdentifyHandler(c *gin.Context) {
	var req IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	if (req.Image == "") == (req.Description == "") {
		utils.SendJSONError(c, http.StatusBadRequest, "Provide exactly one of 'image' or 'description'.", nil)
		return
	}

	// Registered users are gated by the daily quota; anonymous requests are not.
	if req.UserID != nil {
		status, err := h.usageService.CheckDailyLimit(*req.UserID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
				return
			}
			utils.SendJSONError(c, http.StatusInternalServerError, "Could not verify identification quota.", err)
			return
		}
		if !status.WithinLimit {
			log.Printf("INFO: [API] UserID %d has exhausted the daily identification quota (%d/%d).",
				*req.UserID, status.Used, status.Limit.Wire())
			utils.SendJSONError(c, http.StatusForbidden, "Daily identification limit reached. Upgrade to premium for unlimited identifications.", nil)
			return
		}
	}

	var raw []byte
	var err error
	if req.Image != "" {
		raw, err = h.identifyService.IdentifyFromImage(c.Request.Context(), req.Image)
	} else {
		raw, err = h.identifyService.IdentifyFromDescription(c.Request.Context(), req.Description)
	}
	if err != nil {
		utils.SendJSONError(c, http.StatusBadGateway, "The identification service is currently unavailable.", err)
		return
	}

	result, err := h.normalizerService.Normalize(raw)
	if err != nil {
		var failed *services.IdentificationFailedError
		switch {
		case errors.As(err, &failed):
			utils.SendJSONError(c, http.StatusUnprocessableEntity, failed.Message, nil)
		case errors.Is(err, services.ErrInvalidResponseShape), errors.Is(err, services.ErrSchemaViolation):
			utils.SendJSONError(c, http.StatusBadGateway, "The identification service returned an unusable response.", err)
		default:
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to process identification result.", err)
		}
		return
	}
	result.ImageURL = req.Image

	var identification *models.Identification
	if req.Save == nil || *req.Save {
		identification = &models.Identification{
			UserID:   req.UserID,
			ImageURL: req.Image,
			Result:   *result,
		}
		if err := h.identificationRepo.CreateIdentification(identification); err != nil {
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to save identification.", err)
			return
		}
	}

	resp := models.IdentifyResponse{
		Identification: identification,
		Result:         result,
		DailyLimit:     models.UnlimitedSentinel,
		RemainingToday: models.UnlimitedSentinel,
	}
	if req.UserID != nil {
		count, err := h.usageService.IncrementDailyCount(*req.UserID)
		if err != nil {
			// The record is saved; losing the counter bump is logged, not fatal.
			log.Printf("ERROR: [API] Failed to increment daily count for userID %d: %v", *req.UserID, err)
		} else if status, statusErr := h.usageService.CheckDailyLimit(*req.UserID); statusErr == nil {
			resp.UsedToday = count
			resp.DailyLimit = status.Limit.Wire()
			resp.RemainingToday = remainingQuota(status.Limit, count)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// RecentIdentificationsHandler returns a user's identification history, newest
// first, truncated to the plan's history limit.
func (h *APIHandler) RecentIdentificationsHandler(c *gin.Context) {
	userID, ok := utils.ParseUintParam(c, "userID")
	if !ok {
		return
	}

	limit, err := h.usageService.EffectiveHistoryLimit(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch identifications.", err)
		return
	}

	identifications, err := h.identificationRepo.GetRecentByUserID(userID, limit)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch identifications.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identifications": identifications,
		"historyLimit":    limit.Wire(),
	})
}

// GetIdentificationHandler returns one identification record.
func (h *APIHandler) GetIdentificationHandler(c *gin.Context) {
	identificationID, ok := utils.ParseUintParam(c, "id")
	if !ok {
		return
	}
	identification, err := h.identificationRepo.GetIdentificationByID(identificationID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch identification.", err)
		return
	}
	if identification == nil {
		utils.SendJSONError(c, http.StatusNotFound, "Identification not found.", nil)
		return
	}
	c.JSON(http.StatusOK, identification)
}
