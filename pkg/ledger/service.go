package ledger

import (
	"context"
	"errors"
	"fmt"

	"blogforge/pkg/logger"
	"blogforge/pkg/payments"
	"blogforge/pkg/queue"
)

// Service implements the credit ledger protocols on top of the Repository.
// All balance-affecting entry points of the system go through it.
type Service interface {
	GetBalance(userID string) (*Balance, error)
	// EnsureBalance creates the user's balance with the signup grant if it
	// does not exist yet. Safe to call on every session bootstrap.
	EnsureBalance(userID string) (*Balance, error)
	// Debit spends credits for a generated artifact. The artifact must already
	// be durably saved so referenceID can point at it.
	Debit(userID string, amount int, description, referenceID string) (*DebitResult, error)
	// Settle converts a confirmed external payment into credits, exactly once
	// per order id.
	Settle(ctx context.Context, userID string, req SettleRequest) (*SettleResult, error)
	WasSettled(userID, orderID string) (bool, error)
	ListTransactions(userID string, limit, offset int) ([]*Transaction, error)
}

type ledgerService struct {
	repo        Repository
	verifier    payments.Verifier
	queueClient *queue.Client
	signupGrant int
	logger      *logger.Logger
}

func NewService(
	repo Repository,
	verifier payments.Verifier,
	queueClient *queue.Client,
	signupGrant int,
	log *logger.Logger,
) Service {
	return &ledgerService{
		repo:        repo,
		verifier:    verifier,
		queueClient: queueClient,
		signupGrant: signupGrant,
		logger:      log,
	}
}

func (s *ledgerService) GetBalance(userID string) (*Balance, error) {
	return s.repo.GetBalance(userID)
}

func (s *ledgerService) EnsureBalance(userID string) (*Balance, error) {
	balance, created, err := s.repo.EnsureBalance(userID, s.signupGrant)
	if err != nil {
		s.logger.Error("Failed to ensure balance for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to ensure balance: %w", err)
	}

	if created {
		s.publishEvent(queue.RoutingKeyGranted, queue.BillingEvent{
			Type:    "signup_grant",
			UserID:  userID,
			Amount:  s.signupGrant,
			Balance: balance.Credits,
		})
	}

	return balance, nil
}

func (s *ledgerService) Debit(userID string, amount int, description, referenceID string) (*DebitResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	remaining, err := s.repo.DebitBalance(userID, amount)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInsufficientCredits) {
		return nil, err
	}
	if err != nil {
		// Infrastructure fault on the authoritative write; one retry.
		s.logger.Warn("Debit write failed for user %s, retrying once: %v", userID, err)
		remaining, err = s.repo.DebitBalance(userID, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to debit balance: %w", err)
		}
	}

	// The audit entry is best-effort: the balance update above is the
	// authority, and a missing entry is repaired out of band.
	entry := &Transaction{
		UserID:      userID,
		Amount:      -amount,
		Description: description,
		ReferenceID: referenceID,
	}
	if err := s.repo.AppendTransaction(entry); err != nil {
		s.logger.Error("Failed to append debit entry for user %s (balance already updated): %v", userID, err)
	}

	return &DebitResult{RemainingCredits: remaining}, nil
}

func (s *ledgerService) Settle(ctx context.Context, userID string, req SettleRequest) (*SettleResult, error) {
	order, err := payments.ParseOrderID(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	if order.UserID != userID {
		// Replaying another user's order id.
		s.logger.Warn("Order user mismatch: order=%s owner=%s settler=%s", req.OrderID, order.UserID, userID)
		return nil, fmt.Errorf("%w: order does not belong to the settling user", ErrInvalidOrder)
	}

	plan, ok := payments.GetPlan(order.PlanID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidOrder, order.PlanID)
	}
	if req.Amount != plan.Price {
		return nil, fmt.Errorf("%w: amount %d does not match plan price %d", ErrInvalidOrder, req.Amount, plan.Price)
	}

	// Replay short-circuit before calling the provider again. The unique
	// constraint below remains the authoritative guard.
	settled, err := s.repo.WasSettled(userID, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check settlement state: %w", err)
	}
	if settled {
		balance, err := s.repo.GetBalance(userID)
		if err != nil {
			return nil, err
		}
		return &SettleResult{
			RemainingCredits: balance.Credits,
			AlreadyProcessed: true,
			PlanID:           plan.ID,
			CreditsAdded:     0,
		}, nil
	}

	if s.verifier == nil {
		return nil, fmt.Errorf("%w: no payment verifier configured", ErrPaymentVerificationFailed)
	}
	if err := s.verifier.Confirm(ctx, req.PaymentKey, req.OrderID, req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}

	if _, _, err := s.repo.EnsureBalance(userID, s.signupGrant); err != nil {
		return nil, fmt.Errorf("failed to ensure balance: %w", err)
	}

	description := fmt.Sprintf("%s purchase - order: %s", plan.Name, req.OrderID)
	remaining, alreadyProcessed, err := s.repo.CreditWithKey(userID, plan.Credits, description, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	result := &SettleResult{
		RemainingCredits: remaining,
		AlreadyProcessed: alreadyProcessed,
		PlanID:           plan.ID,
	}
	if !alreadyProcessed {
		result.CreditsAdded = plan.Credits
		s.publishEvent(queue.RoutingKeySettled, queue.BillingEvent{
			Type:    "settlement",
			UserID:  userID,
			OrderID: req.OrderID,
			PlanID:  plan.ID,
			Amount:  plan.Credits,
			Balance: remaining,
		})
	}

	return result, nil
}

func (s *ledgerService) WasSettled(userID, orderID string) (bool, error) {
	return s.repo.WasSettled(userID, orderID)
}

func (s *ledgerService) ListTransactions(userID string, limit, offset int) ([]*Transaction, error) {
	transactions, err := s.repo.ListTransactions(userID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list transactions for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (s *ledgerService) publishEvent(routingKey string, event queue.BillingEvent) {
	if s.queueClient == nil {
		return
	}
	go func() {
		if err := s.queueClient.PublishBillingEvent(routingKey, event); err != nil {
			s.logger.Error("Failed to publish billing event %s: %v", routingKey, err)
		}
	}()
}
