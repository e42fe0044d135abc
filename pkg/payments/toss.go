package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"blogforge/pkg/config"
	"blogforge/pkg/logger"
)

const confirmTimeout = 15 * time.Second

// Verifier confirms a payment with the external provider before any credits
// are granted. A non-nil error means the payment must not be settled.
type Verifier interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int) error
}

// TossClient verifies payments against the Toss Payments confirm API.
type TossClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *logger.Logger
}

func NewTossClient(cfg *config.Config, log *logger.Logger) *TossClient {
	return &TossClient{
		secretKey: cfg.TossSecretKey,
		baseURL:   cfg.TossAPIURL,
		client:    &http.Client{Timeout: confirmTimeout},
		logger:    log,
	}
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int    `json:"amount"`
}

type confirmResponse struct {
	Status      string `json:"status"`
	TotalAmount int    `json:"totalAmount"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

func (c *TossClient) Confirm(ctx context.Context, paymentKey, orderID string, amount int) error {
	if c.secretKey == "" {
		return fmt.Errorf("payment provider secret key is not configured")
	}

	body, err := json.Marshal(confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal confirm request: %w", err)
	}

	url := c.baseURL + "/v1/payments/confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build confirm request: %w", err)
	}

	basicAuth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+basicAuth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	var result confirmResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Payment confirm rejected: order=%s code=%s message=%s", orderID, result.Code, result.Message)
		if result.Message != "" {
			return fmt.Errorf("provider rejected payment: %s", result.Message)
		}
		return fmt.Errorf("provider rejected payment: status %d", resp.StatusCode)
	}

	if result.Status != "DONE" {
		return fmt.Errorf("payment not completed: status %q", result.Status)
	}

	// A partial or inflated charge must never credit the account.
	if result.TotalAmount != amount {
		return fmt.Errorf("amount mismatch: confirmed %d, expected %d", result.TotalAmount, amount)
	}

	return nil
}
