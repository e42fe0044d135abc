package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"blogforge/pkg/ledger"
	"blogforge/pkg/logger"
	"blogforge/pkg/openai"
	"blogforge/services/content/internal/entity"
	"blogforge/services/content/internal/repo/persistent"

	"github.com/google/uuid"
)

// GenerationCost is the credit price of one blog post generation.
const GenerationCost = 1

const maxTopicLength = 500

var (
	ErrTopicRequired      = errors.New("topic is required")
	ErrTopicTooLong       = errors.New("topic is too long")
	ErrGenerationNotFound = errors.New("generation not found")
)

// ObjectStore is the subset of the S3 client the content flow needs.
type ObjectStore interface {
	UploadContent(key string, body io.Reader, contentType string) (string, error)
}

type ContentUseCase interface {
	// GenerateContent produces a blog post for the topic, stores it, and
	// debits one credit. The remaining credit balance is returned alongside
	// the generation.
	GenerateContent(ctx context.Context, userID, topic string) (*entity.Generation, int, error)
	GetGeneration(userID, generationID string) (*entity.Generation, error)
	ListGenerations(userID string, limit, offset int) ([]*entity.Generation, error)
}

type contentUseCase struct {
	generationRepo persistent.GenerationRepository
	ledgerService  ledger.Service
	generator      openai.Generator
	store          ObjectStore
	logger         *logger.Logger
}

func NewContentUseCase(
	generationRepo persistent.GenerationRepository,
	ledgerService ledger.Service,
	generator openai.Generator,
	store ObjectStore,
	logger *logger.Logger,
) ContentUseCase {
	return &contentUseCase{
		generationRepo: generationRepo,
		ledgerService:  ledgerService,
		generator:      generator,
		store:          store,
		logger:         logger,
	}
}

func (uc *contentUseCase) GenerateContent(ctx context.Context, userID, topic string) (*entity.Generation, int, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, 0, ErrTopicRequired
	}
	if len(topic) > maxTopicLength {
		return nil, 0, ErrTopicTooLong
	}

	// Check credits up front so we never burn a model call for a user who
	// cannot pay. The authoritative guard is still the debit below.
	balance, err := uc.ledgerService.EnsureBalance(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load credit balance: %w", err)
	}
	if balance.Credits < GenerationCost {
		return nil, balance.Credits, ledger.ErrInsufficientCredits
	}

	result, err := uc.generator.GenerateBlogContent(ctx, topic)
	if err != nil {
		return nil, balance.Credits, fmt.Errorf("content generation failed: %w", err)
	}

	generationID := uuid.New().String()
	fileKey := fmt.Sprintf("generations/%s/%s.md", userID, generationID)
	contentURL, err := uc.store.UploadContent(fileKey, strings.NewReader(result.Content), "text/markdown")
	if err != nil {
		return nil, balance.Credits, fmt.Errorf("failed to upload content to S3: %w", err)
	}

	generation := &entity.Generation{
		ID:         generationID,
		UserID:     userID,
		Topic:      topic,
		ContentURL: contentURL,
		SEOTips:    result.SEOTips,
		Content:    result.Content,
	}
	if err := uc.generationRepo.Create(generation); err != nil {
		return nil, balance.Credits, fmt.Errorf("failed to save generation: %w", err)
	}

	// The artifact is durable; charge for it. If the debit fails the user
	// still gets the result, with the row left uncharged for reconciliation.
	description := fmt.Sprintf("content generation: %s", topic)
	debit, err := uc.ledgerService.Debit(userID, GenerationCost, description, generationID)
	if err != nil {
		uc.logger.Warn("Delivering uncharged generation %s for user %s: %v", generationID, userID, err)
		return generation, balance.Credits, nil
	}

	if err := uc.generationRepo.MarkCharged(generationID); err != nil {
		uc.logger.Error("Failed to mark generation %s as charged: %v", generationID, err)
	} else {
		generation.Charged = true
	}

	return generation, debit.RemainingCredits, nil
}

func (uc *contentUseCase) GetGeneration(userID, generationID string) (*entity.Generation, error) {
	generation, err := uc.generationRepo.GetByID(generationID)
	if err != nil {
		return nil, ErrGenerationNotFound
	}
	// Generations are private to their owner.
	if generation.UserID != userID {
		return nil, ErrGenerationNotFound
	}
	return generation, nil
}

func (uc *contentUseCase) ListGenerations(userID string, limit, offset int) ([]*entity.Generation, error) {
	return uc.generationRepo.GetByUserID(userID, limit, offset)
}
