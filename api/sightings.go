package api

import (
	"errors"
	"net/http"

	"birdid/models"
	"birdid/services"
	"birdid/utils"

	"github.com/gin-gonic/gin"
)

// CreateSightingHandler logs a new sighting for a user, subject to the plan's
// total-sightings cap.
func (h *APIHandler) CreateSightingHandler(c *gin.Context) {
	var sighting models.Sighting
	if err := c.ShouldBindJSON(&sighting); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}

	created, err := h.sightingService.CreateSighting(&sighting)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
		case errors.Is(err, services.ErrLimitExceeded):
			utils.SendJSONError(c, http.StatusForbidden, "Sighting limit reached for your plan. Upgrade to premium to save more sightings.", nil)
		default:
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to save sighting.", err)
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetSightingHandler returns one sighting.
func (h *APIHandler) GetSightingHandler(c *gin.Context) {
	sightingID, ok := utils.ParseUintParam(c, "id")
	if !ok {
		return
	}
	sighting, err := h.sightingService.GetSighting(sightingID)
	if err != nil {
		if errors.Is(err, services.ErrSightingNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "Sighting not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch sighting.", err)
		return
	}
	c.JSON(http.StatusOK, sighting)
}

// UserSightingsHandler lists a user's sightings, newest first, capped by the
// plan's sighting limit.
func (h *APIHandler) UserSightingsHandler(c *gin.Context) {
	userID, ok := utils.ParseUintParam(c, "userID")
	if !ok {
		return
	}
	sightings, err := h.sightingService.GetSightingsForUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Failed to fetch sightings.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sightings": sightings})
}

// UpdateSightingHandler edits a sighting. The acting user is taken from the
// request body and must own the record.
func (h *APIHandler) UpdateSightingHandler(c *gin.Context) {
	sightingID, ok := utils.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var updated models.Sighting
	if err := c.ShouldBindJSON(&updated); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	if updated.UserID == 0 {
		utils.SendJSONError(c, http.StatusBadRequest, "userId is required.", nil)
		return
	}

	sighting, err := h.sightingService.UpdateSighting(sightingID, updated.UserID, &updated)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSightingNotFound):
			utils.SendJSONError(c, http.StatusNotFound, "Sighting not found.", nil)
		case errors.Is(err, services.ErrNotOwner):
			utils.SendJSONError(c, http.StatusForbidden, "You can only edit your own sightings.", nil)
		default:
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to update sighting.", err)
		}
		return
	}
	c.JSON(http.StatusOK, sighting)
}

// DeleteSightingHandler removes a sighting. The acting user comes from the
// user_id query parameter and must own the record.
func (h *APIHandler) DeleteSightingHandler(c *gin.Context) {
	sightingID, ok := utils.ParseUintParam(c, "id")
	if !ok {
		return
	}
	userID, ok := utils.ParseUintQuery(c, "user_id")
	if !ok {
		return
	}
	if userID == 0 {
		utils.SendJSONError(c, http.StatusBadRequest, "user_id query parameter is required.", nil)
		return
	}

	if err := h.sightingService.DeleteSighting(sightingID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrSightingNotFound):
			utils.SendJSONError(c, http.StatusNotFound, "Sighting not found.", nil)
		case errors.Is(err, services.ErrNotOwner):
			utils.SendJSONError(c, http.StatusForbidden, "You can only delete your own sightings.", nil)
		default:
			utils.SendJSONError(c, http.StatusInternalServerError, "Failed to delete sighting.", err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}
