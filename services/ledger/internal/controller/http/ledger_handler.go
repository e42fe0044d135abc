package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"blogforge/pkg/ledger"
	"blogforge/pkg/logger"
	"blogforge/pkg/payments"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// settledHintTTL bounds how long the redis replay hint lives. The unique
// constraint in the ledger is the authoritative guard; the hint only saves a
// provider round trip on obvious replays (success-page reloads).
const settledHintTTL = 24 * time.Hour

type LedgerHandler struct {
	ledgerService ledger.Service
	redisClient   *redis.Client
	logger        *logger.Logger
}

func NewLedgerHandler(ledgerService ledger.Service, redisClient *redis.Client, logger *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		redisClient:   redisClient,
		logger:        logger,
	}
}

// GetCredits godoc
// @Summary      Get credit balance
// @Description  Get the credit balance for the authenticated user, creating it with the signup grant if absent
// @Tags         credits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ledger.Balance
// @Router       /credits [get]
func (h *LedgerHandler) GetCredits(c *gin.Context) {
	userID := c.GetString("user_id")

	balance, err := h.ledgerService.EnsureBalance(userID)
	if err != nil {
		h.logger.Error("Failed to get balance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load credit balance"})
		return
	}

	c.JSON(http.StatusOK, balance)
}

// GetTransactions godoc
// @Summary      Get credit transactions
// @Description  Get the credit transaction history for the authenticated user, newest first
// @Tags         credits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of transactions"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /credits/transactions [get]
func (h *LedgerHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	transactions, err := h.ledgerService.ListTransactions(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// GetPlans godoc
// @Summary      List credit packs
// @Description  List the purchasable credit packs
// @Tags         payments
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /plans [get]
func (h *LedgerHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": payments.Plans})
}

type ConfirmPaymentRequest struct {
	PaymentKey string `json:"paymentKey" binding:"required"`
	OrderID    string `json:"orderId" binding:"required"`
	Amount     int    `json:"amount" binding:"required,min=1"`
}

// ConfirmPayment godoc
// @Summary      Confirm a payment and settle credits
// @Description  Verify the payment with the provider and credit the purchased pack exactly once per order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ConfirmPaymentRequest true "Payment parameters from the checkout redirect"
// @Success      200  {object}  ledger.SettleResult
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Router       /payments/confirm [post]
func (h *LedgerHandler) ConfirmPayment(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The order must check out before anything answers, the replay hint
	// included: a foreign or tampered order id gets rejected here, never a
	// success response built from the hint cache.
	order, err := payments.ParseOrderID(req.OrderID)
	if err != nil {
		h.logger.Warn("Rejected settlement with malformed order (user=%s, order=%s): %v", userID, req.OrderID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order"})
		return
	}
	if order.UserID != userID {
		h.logger.Warn("Rejected settlement for foreign order (user=%s, order=%s, owner=%s)", userID, req.OrderID, order.UserID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order"})
		return
	}
	plan, ok := payments.GetPlan(order.PlanID)
	if !ok || req.Amount != plan.Price {
		h.logger.Warn("Rejected settlement with mismatched amount (user=%s, order=%s, amount=%d)", userID, req.OrderID, req.Amount)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order"})
		return
	}

	// Cheap replay short-circuit for success-page reloads, valid only once
	// the order above is known to belong to the caller.
	if h.wasSettledHint(c, req.OrderID) {
		balance, err := h.ledgerService.GetBalance(userID)
		if err == nil {
			c.JSON(http.StatusOK, ledger.SettleResult{
				RemainingCredits: balance.Credits,
				AlreadyProcessed: true,
				PlanID:           plan.ID,
			})
			return
		}
		// Fall through to the authoritative path.
	}

	result, err := h.ledgerService.Settle(c.Request.Context(), userID, ledger.SettleRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidOrder):
			h.logger.Warn("Rejected settlement with invalid order (user=%s, order=%s): %v", userID, req.OrderID, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order"})
		case errors.Is(err, ledger.ErrPaymentVerificationFailed):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to settle payment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment processing failed"})
		}
		return
	}

	h.storeSettledHint(c, req.OrderID)

	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) wasSettledHint(c *gin.Context, orderID string) bool {
	if h.redisClient == nil {
		return false
	}
	n, err := h.redisClient.Exists(c.Request.Context(), "settled:"+orderID).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (h *LedgerHandler) storeSettledHint(c *gin.Context, orderID string) {
	if h.redisClient == nil {
		return
	}
	if err := h.redisClient.SetNX(c.Request.Context(), "settled:"+orderID, 1, settledHintTTL).Err(); err != nil {
		h.logger.Warn("Failed to store settlement hint for %s: %v", orderID, err)
	}
}
