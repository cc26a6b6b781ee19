package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"birdid/models"
	"birdid/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) GetUserByID(userID uint) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateUser(user *models.User) error {
	return m.Called(user).Error(0)
}

type mockIdentificationRepo struct{ mock.Mock }

func (m *mockIdentificationRepo) CreateIdentification(identification *models.Identification) error {
	return m.Called(identification).Error(0)
}

func (m *mockIdentificationRepo) GetIdentificationByID(id uint) (*models.Identification, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identification), args.Error(1)
}

func (m *mockIdentificationRepo) GetRecentByUserID(userID uint, limit models.Limit) ([]*models.Identification, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Identification), args.Error(1)
}

func (m *mockIdentificationRepo) CountByUserID(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockUsageService struct{ mock.Mock }

func (m *mockUsageService) CheckDailyLimit(userID uint) (*services.UsageStatus, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UsageStatus), args.Error(1)
}

func (m *mockUsageService) IncrementDailyCount(userID uint) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *mockUsageService) ResetDailyCount(userID uint) error {
	return m.Called(userID).Error(0)
}

func (m *mockUsageService) EffectiveHistoryLimit(userID uint) (models.Limit, error) {
	args := m.Called(userID)
	return args.Get(0).(models.Limit), args.Error(1)
}

func (m *mockUsageService) EffectiveSightingLimit(userID uint) (models.Limit, error) {
	args := m.Called(userID)
	return args.Get(0).(models.Limit), args.Error(1)
}

type mockIdentifyService struct{ mock.Mock }

func (m *mockIdentifyService) IdentifyFromImage(ctx context.Context, imageURL string) ([]byte, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockIdentifyService) IdentifyFromDescription(ctx context.Context, description string) ([]byte, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockSubscriptionService struct{ mock.Mock }

func (m *mockSubscriptionService) CreateCheckoutSession(userID uint) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *mockSubscriptionService) ActivatePremium(userID uint, stripeCustomerID string) (*models.User, error) {
	args := m.Called(userID, stripeCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockSubscriptionService) CancelSubscription(userID uint) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockSubscriptionService) GetStatus(userID uint) (*models.SubscriptionStatusResponse, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionStatusResponse), args.Error(1)
}

type handlerMocks struct {
	userRepo            *mockUserRepo
	identificationRepo  *mockIdentificationRepo
	usageService        *mockUsageService
	identifyService     *mockIdentifyService
	subscriptionService *mockSubscriptionService
}

func newTestHandler() (*APIHandler, *handlerMocks) {
	m := &handlerMocks{
		userRepo:            new(mockUserRepo),
		identificationRepo:  new(mockIdentificationRepo),
		usageService:        new(mockUsageService),
		identifyService:     new(mockIdentifyService),
		subscriptionService: new(mockSubscriptionService),
	}
	handler := NewAPIHandler(
		m.userRepo,
		m.identificationRepo,
		m.usageService,
		services.NewNormalizerService(),
		m.identifyService,
		nil, // sighting service unused by these handlers
		m.subscriptionService,
	)
	return handler, m
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter(handler *APIHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/init", handler.InitHandler)
	r.POST("/api/identify", handler.IdentifyHandler)
	r.GET("/api/identifications/user/:userID", handler.RecentIdentificationsHandler)
	return r
}

func TestInitHandler(t *testing.T) {
	t.Run("Returns plan, usage and limits", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.usageService.On("CheckDailyLimit", uint(1)).Return(&services.UsageStatus{
			WithinLimit: true, Used: 2, Limit: models.Bounded(5),
		}, nil).Once()
		m.subscriptionService.On("GetStatus", uint(1)).Return(&models.SubscriptionStatusResponse{
			UserID: 1, Plan: models.PlanFree, Limits: models.LimitsFor(models.PlanFree),
		}, nil).Once()

		w := performJSON(t, r, http.MethodGet, "/api/init?userID=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.InitResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.PlanFree, resp.Plan)
		assert.Equal(t, 2, resp.UsedToday)
		assert.Equal(t, 5, resp.DailyLimit)
		assert.Equal(t, 3, resp.RemainingToday)
	})

	t.Run("Unknown user is a 404", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.usageService.On("CheckDailyLimit", uint(99)).Return(nil, services.ErrUserNotFound).Once()

		w := performJSON(t, r, http.MethodGet, "/api/init?userID=99", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing userID is a 400", func(t *testing.T) {
		handler, _ := newTestHandler()
		r := newTestRouter(handler)

		w := performJSON(t, r, http.MethodGet, "/api/init", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIdentifyHandler(t *testing.T) {
	aiResponse := []byte(`{"mainBird": {"name": "European Robin", "scientificName": "Erithacus rubecula", "confidence": 91}}`)

	t.Run("Registered user within quota gets a normalized result", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		userID := uint(1)
		m.usageService.On("CheckDailyLimit", userID).Return(&services.UsageStatus{
			WithinLimit: true, Used: 0, Limit: models.Bounded(5),
		}, nil).Once()
		m.identifyService.On("IdentifyFromImage", mock.Anything, "https://example.com/robin.jpg").
			Return(aiResponse, nil).Once()
		m.identificationRepo.On("CreateIdentification", mock.MatchedBy(func(rec *models.Identification) bool {
			return rec.UserID != nil && *rec.UserID == userID && rec.Result.MainBird.Name == "European Robin"
		})).Return(nil).Once()
		m.usageService.On("IncrementDailyCount", userID).Return(1, nil).Once()
		m.usageService.On("CheckDailyLimit", userID).Return(&services.UsageStatus{
			WithinLimit: true, Used: 1, Limit: models.Bounded(5),
		}, nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			UserID: &userID,
			Image:  "https://example.com/robin.jpg",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.IdentifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Result)
		assert.Equal(t, "European Robin", resp.Result.MainBird.Name)
		assert.Equal(t, 1, resp.UsedToday)
		assert.Equal(t, 4, resp.RemainingToday)
		m.usageService.AssertExpectations(t)
	})

	t.Run("Anonymous request skips the quota entirely", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.identifyService.On("IdentifyFromDescription", mock.Anything, "small bird with an orange breast").
			Return(aiResponse, nil).Once()
		m.identificationRepo.On("CreateIdentification", mock.MatchedBy(func(rec *models.Identification) bool {
			return rec.UserID == nil
		})).Return(nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			Description: "small bird with an orange breast",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.IdentifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.UnlimitedSentinel, resp.DailyLimit)
		m.usageService.AssertNotCalled(t, "CheckDailyLimit", mock.Anything)
		m.usageService.AssertNotCalled(t, "IncrementDailyCount", mock.Anything)
	})

	t.Run("save=false skips persistence but still counts against the quota", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		userID := uint(1)
		noSave := false
		m.usageService.On("CheckDailyLimit", userID).Return(&services.UsageStatus{
			WithinLimit: true, Used: 0, Limit: models.Bounded(5),
		}, nil).Twice()
		m.identifyService.On("IdentifyFromImage", mock.Anything, mock.Anything).
			Return(aiResponse, nil).Once()
		m.usageService.On("IncrementDailyCount", userID).Return(1, nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			UserID: &userID,
			Image:  "https://example.com/robin.jpg",
			Save:   &noSave,
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.IdentifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp.Identification)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "European Robin", resp.Result.MainBird.Name)
		m.identificationRepo.AssertNotCalled(t, "CreateIdentification", mock.Anything)
		m.usageService.AssertExpectations(t)
	})

	t.Run("Exhausted quota is a 403 and the AI is never called", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		userID := uint(1)
		m.usageService.On("CheckDailyLimit", userID).Return(&services.UsageStatus{
			WithinLimit: false, Used: 5, Limit: models.Bounded(5),
		}, nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			UserID: &userID,
			Image:  "https://example.com/robin.jpg",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		m.identifyService.AssertNotCalled(t, "IdentifyFromImage", mock.Anything, mock.Anything)
	})

	t.Run("Explicit AI failure is a 422 carrying the message", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.identifyService.On("IdentifyFromImage", mock.Anything, mock.Anything).
			Return([]byte(`{"error": true, "message": "No bird visible in the image"}`), nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			Image: "https://example.com/empty.jpg",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "No bird visible in the image")
		m.identificationRepo.AssertNotCalled(t, "CreateIdentification", mock.Anything)
	})

	t.Run("Unusable AI response is a 502", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.identifyService.On("IdentifyFromImage", mock.Anything, mock.Anything).
			Return([]byte(`{"similarBirds": []}`), nil).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			Image: "https://example.com/robin.jpg",
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("AI transport failure is a 502", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.identifyService.On("IdentifyFromImage", mock.Anything, mock.Anything).
			Return(nil, errors.New("upstream timeout")).Once()

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			Image: "https://example.com/robin.jpg",
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("Both or neither input is a 400", func(t *testing.T) {
		handler, _ := newTestHandler()
		r := newTestRouter(handler)

		w := performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = performJSON(t, r, http.MethodPost, "/api/identify", IdentifyRequest{
			Image:       "https://example.com/robin.jpg",
			Description: "a robin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecentIdentificationsHandler(t *testing.T) {
	t.Run("History is truncated to the plan limit", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		limit := models.Bounded(3)
		userID := uint(1)
		records := []*models.Identification{{ID: 3, UserID: &userID}, {ID: 2, UserID: &userID}, {ID: 1, UserID: &userID}}
		m.usageService.On("EffectiveHistoryLimit", userID).Return(limit, nil).Once()
		m.identificationRepo.On("GetRecentByUserID", userID, limit).Return(records, nil).Once()

		w := performJSON(t, r, http.MethodGet, "/api/identifications/user/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Identifications []models.Identification `json:"identifications"`
			HistoryLimit    int                     `json:"historyLimit"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Identifications, 3)
		assert.Equal(t, 3, resp.HistoryLimit)
	})

	t.Run("Unknown user is a 404", func(t *testing.T) {
		handler, m := newTestHandler()
		r := newTestRouter(handler)

		m.usageService.On("EffectiveHistoryLimit", uint(99)).Return(models.Limit{}, services.ErrUserNotFound).Once()

		w := performJSON(t, r, http.MethodGet, "/api/identifications/user/99", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
