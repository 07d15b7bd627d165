package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-payout-service/internal/adapter/http/dto"
	"wallet-payout-service/internal/adapter/http/middleware"
	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/internal/core/ports/mocks"
	"wallet-payout-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authedContext(w *httptest.ResponseRecorder, ownerID uuid.UUID) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.CtxUserID, ownerID)
	return c, r
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}).Return(&domain.User{
		ID:       userID,
		Username: "testuser",
		Email:    "test@example.com",
	}, nil)

	body, _ := json.Marshal(dto.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, "testuser", data["username"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrUsernameExists())

	body, _ := json.Marshal(dto.RegisterRequest{
		Username: "taken",
		Email:    "taken@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "testuser", "password123").Return("jwt-token-123", expiry, nil)

	body, _ := json.Marshal(dto.LoginRequest{
		Username: "testuser",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["token"])
}

// --- Payout Handler Tests ---

func pendingPayout(ownerID uuid.UUID) *domain.Payout {
	return &domain.Payout{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		BeneficiaryID: uuid.New(),
		Amount:        decimal.NewFromInt(50),
		Currency:      "INR",
		Status:        domain.PayoutStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestCreatePayout_Fresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout, mocks.NewMockQueryService(ctrl))

	ownerID := uuid.New()
	payout := pendingPayout(ownerID)

	mockPayout.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CreatePayoutRequest) (*domain.Payout, bool, error) {
			assert.Equal(t, ownerID, req.OwnerID)
			assert.Equal(t, "key-42", req.IdempotencyKey)
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(50)))
			return payout, false, nil
		})

	body, _ := json.Marshal(gin.H{
		"beneficiary_id": payout.BeneficiaryID.String(),
		"amount":         "50",
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payouts", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "key-42")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, false, data["idempotent"])
	inner := data["payout"].(map[string]interface{})
	assert.Equal(t, payout.ID.String(), inner["id"])
	assert.Equal(t, "PENDING", inner["status"])
}

func TestCreatePayout_IdempotentReplayReturns200(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout, mocks.NewMockQueryService(ctrl))

	ownerID := uuid.New()
	payout := pendingPayout(ownerID)

	mockPayout.EXPECT().Create(gomock.Any(), gomock.Any()).Return(payout, true, nil)

	body, _ := json.Marshal(gin.H{
		"beneficiary_id": payout.BeneficiaryID.String(),
		"amount":         "50",
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payouts", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderIdempotencyKey, "key-42")

	h.Create(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["idempotent"])
}

func TestCreatePayout_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout, mocks.NewMockQueryService(ctrl))

	ownerID := uuid.New()
	mockPayout.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, false, apperror.ErrInsufficientBalance())

	body, _ := json.Marshal(gin.H{
		"beneficiary_id": uuid.New().String(),
		"amount":         "5000",
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payouts", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAYOUT_003")
}

func TestCreatePayout_BadBeneficiaryID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPayoutHandler(mocks.NewMockPayoutService(ctrl), mocks.NewMockQueryService(ctrl))

	body, _ := json.Marshal(gin.H{
		"beneficiary_id": "not-a-uuid",
		"amount":         "50",
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, uuid.New())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payouts", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettlePayout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout, mocks.NewMockQueryService(ctrl))

	ownerID := uuid.New()
	payout := pendingPayout(ownerID)
	payout.Status = domain.PayoutStatusSuccess
	now := time.Now().UTC()
	payout.SettledAt = &now

	mockPayout.EXPECT().Settle(gomock.Any(), ownerID, payout.ID, domain.OutcomeSuccess).Return(payout, nil)

	body, _ := json.Marshal(dto.SettlePayoutRequest{Outcome: "success"})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payouts/"+payout.ID.String()+"/settle", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: payout.ID.String()}}

	h.Settle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "SUCCESS", data["status"])
	assert.NotEmpty(t, data["settled_at"])
}

func TestSettlePayout_AlreadyFinalized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout, mocks.NewMockQueryService(ctrl))

	ownerID := uuid.New()
	payoutID := uuid.New()

	mockPayout.EXPECT().Settle(gomock.Any(), ownerID, payoutID, domain.OutcomeFailure).
		Return(nil, apperror.ErrAlreadyFinalized())

	body, _ := json.Marshal(dto.SettlePayoutRequest{Outcome: "failure"})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: payoutID.String()}}

	h.Settle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAYOUT_005")
}

func TestGetPayout_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQuery := mocks.NewMockQueryService(ctrl)
	h := NewPayoutHandler(mocks.NewMockPayoutService(ctrl), mockQuery)

	ownerID := uuid.New()
	payoutID := uuid.New()

	mockQuery.EXPECT().GetPayout(gomock.Any(), ownerID, payoutID).Return(nil, apperror.ErrNotFound("Payout"))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: payoutID.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPayouts_WithFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQuery := mocks.NewMockQueryService(ctrl)
	h := NewPayoutHandler(mocks.NewMockPayoutService(ctrl), mockQuery)

	ownerID := uuid.New()
	payout := pendingPayout(ownerID)

	mockQuery.EXPECT().ListPayouts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
			assert.Equal(t, ownerID, params.OwnerID)
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.PayoutStatusPending, *params.Status)
			assert.Equal(t, 2, params.Page)
			return []domain.Payout{*payout}, 21, nil
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payouts?status=PENDING&page=2&limit=20", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(21), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
}

func TestExportPayouts_SetsCSVHeaders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockQuery := mocks.NewMockQueryService(ctrl)
	h := NewPayoutHandler(mocks.NewMockPayoutService(ctrl), mockQuery)

	ownerID := uuid.New()
	mockQuery.EXPECT().ExportCSV(gomock.Any(), ownerID, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, w2 interface{ Write([]byte) (int, error) }) error {
			_, err := w2.Write([]byte("id,amount\n"))
			return err
		})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payouts/export", nil)

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payouts.csv")
	assert.Contains(t, w.Body.String(), "id,amount")
}

// --- Wallet Handler Tests ---

func TestGetWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	ownerID := uuid.New()
	mockWallet.EXPECT().Get(gomock.Any(), ownerID).Return(&domain.Wallet{
		OwnerID:  ownerID,
		Balance:  decimal.RequireFromString("950"),
		Currency: "INR",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)

	h.GetWallet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "950", data["balance"])
	assert.Equal(t, "INR", data["currency"])
}

// --- Beneficiary Handler Tests ---

func TestCreateBeneficiary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBenef := mocks.NewMockBeneficiaryService(ctrl)
	h := NewBeneficiaryHandler(mockBenef)

	ownerID := uuid.New()
	created := &domain.Beneficiary{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          "Acme Vendor",
		AccountNumber: "000111222333",
		BankName:      "HDFC",
		Balance:       decimal.Zero,
		CreatedAt:     time.Now().UTC(),
	}

	mockBenef.EXPECT().Create(gomock.Any(), gomock.Any()).Return(created, nil)

	body, _ := json.Marshal(dto.CreateBeneficiaryRequest{
		Name:          "Acme Vendor",
		AccountNumber: "000111222333",
		BankName:      "HDFC",
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/beneficiaries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, created.ID.String(), data["id"])
	assert.Equal(t, "0", data["balance"])
}

func TestDeleteBeneficiary_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBenef := mocks.NewMockBeneficiaryService(ctrl)
	h := NewBeneficiaryHandler(mockBenef)

	ownerID := uuid.New()
	id := uuid.New()
	mockBenef.EXPECT().Delete(gomock.Any(), ownerID, id).Return(apperror.ErrNotFound("Beneficiary"))

	w := httptest.NewRecorder()
	c, _ := authedContext(w, ownerID)
	c.Request = httptest.NewRequest(http.MethodDelete, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
