package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogforge/pkg/ledger"
	"blogforge/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of ledger.Service
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(userID string) (*ledger.Balance, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Balance), args.Error(1)
}

func (m *MockLedgerService) EnsureBalance(userID string) (*ledger.Balance, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Balance), args.Error(1)
}

func (m *MockLedgerService) Debit(userID string, amount int, description, referenceID string) (*ledger.DebitResult, error) {
	args := m.Called(userID, amount, description, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DebitResult), args.Error(1)
}

func (m *MockLedgerService) Settle(ctx context.Context, userID string, req ledger.SettleRequest) (*ledger.SettleResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SettleResult), args.Error(1)
}

func (m *MockLedgerService) WasSettled(userID, orderID string) (bool, error) {
	args := m.Called(userID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(userID string, limit, offset int) ([]*ledger.Transaction, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

var _ ledger.Service = (*MockLedgerService)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asUser(userID string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		handler(c)
	}
}

func TestGetCredits_Success(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.GET("/credits", asUser("user-123", handler.GetCredits))

	mockService.On("EnsureBalance", "user-123").Return(&ledger.Balance{UserID: "user-123", Credits: 10}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/credits", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(10), response["credits"])

	mockService.AssertExpectations(t)
}

func TestGetCredits_Error(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.GET("/credits", asUser("user-123", handler.GetCredits))

	mockService.On("EnsureBalance", "user-123").Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/credits", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockService.AssertExpectations(t)
}

func TestGetTransactions_DefaultPagination(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.GET("/credits/transactions", asUser("user-123", handler.GetTransactions))

	transactions := []*ledger.Transaction{
		{ID: "tx-1", UserID: "user-123", Amount: 10, Description: "signup bonus"},
		{ID: "tx-2", UserID: "user-123", Amount: -1, Description: "content generation: gardening"},
	}
	mockService.On("ListTransactions", "user-123", 50, 0).Return(transactions, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/credits/transactions", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(2), response["count"])

	mockService.AssertExpectations(t)
}

func TestGetTransactions_LimitClamped(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.GET("/credits/transactions", asUser("user-123", handler.GetTransactions))

	// limit above 100 falls back to the default
	mockService.On("ListTransactions", "user-123", 50, 20).Return([]*ledger.Transaction{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/credits/transactions?limit=500&offset=20", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestGetPlans(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.GET("/plans", handler.GetPlans)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/plans", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	plans := response["plans"].(map[string]interface{})
	assert.Contains(t, plans, "basic")
	assert.Contains(t, plans, "pro")
	assert.Contains(t, plans, "business")
}

func confirmRequest(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/payments/confirm", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestConfirmPayment_Success(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	orderID := "order_pro_user-123_1700000000"
	mockService.On("Settle", mock.Anything, "user-123", ledger.SettleRequest{
		PaymentKey: "pay-key",
		OrderID:    orderID,
		Amount:     25000,
	}).Return(&ledger.SettleResult{RemainingCredits: 70, PlanID: "pro", CreditsAdded: 60}, nil)

	body := fmt.Sprintf(`{"paymentKey":"pay-key","orderId":"%s","amount":25000}`, orderID)
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(70), response["remaining_credits"])
	assert.Equal(t, false, response["already_processed"])

	mockService.AssertExpectations(t)
}

func TestConfirmPayment_Replay(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	orderID := "order_basic_user-123_1700000000"
	mockService.On("Settle", mock.Anything, "user-123", mock.Anything).
		Return(&ledger.SettleResult{RemainingCredits: 30, AlreadyProcessed: true, PlanID: "basic"}, nil)

	body := fmt.Sprintf(`{"paymentKey":"pay-key","orderId":"%s","amount":10000}`, orderID)
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["already_processed"])
	assert.Equal(t, float64(30), response["remaining_credits"])

	mockService.AssertExpectations(t)
}

func TestConfirmPayment_MalformedOrder(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	w := confirmRequest(t, router, `{"paymentKey":"pay-key","orderId":"garbage","amount":25000}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything)
}

// A user replaying an order id that belongs to someone else must be rejected
// up front, even when that order has already been settled by its owner.
func TestConfirmPayment_ForeignOrderRejected(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-b", handler.ConfirmPayment))

	body := `{"paymentKey":"pay-key","orderId":"order_pro_user-a_1700000000","amount":25000}`
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "invalid order", response["error"])
	mockService.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything)
	mockService.AssertNotCalled(t, "GetBalance", mock.Anything)
}

func TestConfirmPayment_AmountMismatch(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	// pro costs 25000
	body := `{"paymentKey":"pay-key","orderId":"order_pro_user-123_1700000000","amount":9999}`
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_InvalidOrderFromService(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	mockService.On("Settle", mock.Anything, "user-123", mock.Anything).
		Return(nil, fmt.Errorf("%w: tampered", ledger.ErrInvalidOrder))

	body := `{"paymentKey":"pay-key","orderId":"order_pro_user-123_1700000000","amount":25000}`
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestConfirmPayment_VerificationFailed(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	mockService.On("Settle", mock.Anything, "user-123", mock.Anything).
		Return(nil, fmt.Errorf("%w: payment was rejected", ledger.ErrPaymentVerificationFailed))

	body := `{"paymentKey":"pay-key","orderId":"order_pro_user-123_1700000000","amount":25000}`
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	mockService.AssertExpectations(t)
}

func TestConfirmPayment_MissingFields(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	w := confirmRequest(t, router, `{"orderId":"order_pro_user-123_1700000000"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_InternalError(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewLedgerHandler(mockService, nil, logger.New())

	router := setupTestRouter()
	router.POST("/payments/confirm", asUser("user-123", handler.ConfirmPayment))

	mockService.On("Settle", mock.Anything, "user-123", mock.Anything).
		Return(nil, errors.New("db down"))

	body := `{"paymentKey":"pay-key","orderId":"order_pro_user-123_1700000000","amount":25000}`
	w := confirmRequest(t, router, body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockService.AssertExpectations(t)
}
