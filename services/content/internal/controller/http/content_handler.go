package http

import (
	"errors"
	"net/http"
	"strconv"

	"blogforge/pkg/ledger"
	"blogforge/pkg/logger"
	"blogforge/services/content/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentUseCase usecase.ContentUseCase
	logger         *logger.Logger
}

func NewContentHandler(contentUseCase usecase.ContentUseCase, logger *logger.Logger) *ContentHandler {
	return &ContentHandler{
		contentUseCase: contentUseCase,
		logger:         logger,
	}
}

type GenerateContentRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// GenerateContent godoc
// @Summary      Generate a blog post
// @Description  Generate a blog post with SEO tips for the given topic, spending one credit
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GenerateContentRequest true "Generation topic"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Router       /content/generate [post]
func (h *ContentHandler) GenerateContent(c *gin.Context) {
	userID := c.GetString("user_id")

	var req GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generation, remaining, err := h.contentUseCase.GenerateContent(c.Request.Context(), userID, req.Topic)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTopicRequired), errors.Is(err, usecase.ErrTopicTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":             "not enough credits",
				"remaining_credits": remaining,
			})
		default:
			h.logger.Error("Failed to generate content: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "content generation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generation":        generation,
		"remaining_credits": remaining,
	})
}

// GetGeneration godoc
// @Summary      Get a generation
// @Description  Get a single generated blog post owned by the authenticated user
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Generation ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /content/{id} [get]
func (h *ContentHandler) GetGeneration(c *gin.Context) {
	userID := c.GetString("user_id")
	generationID := c.Param("id")

	generation, err := h.contentUseCase.GetGeneration(userID, generationID)
	if err != nil {
		if errors.Is(err, usecase.ErrGenerationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "generation not found"})
			return
		}
		h.logger.Error("Failed to get generation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load generation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generation": generation})
}

// ListGenerations godoc
// @Summary      List generations
// @Description  List the authenticated user's generated blog posts, newest first
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of generations"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /content [get]
func (h *ContentHandler) ListGenerations(c *gin.Context) {
	userID := c.GetString("user_id")
	limit := 20
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

	generations, err := h.contentUseCase.ListGenerations(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list generations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generations": generations, "count": len(generations)})
}
