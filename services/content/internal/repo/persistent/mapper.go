package persistent

import (
	"encoding/json"

	"blogforge/services/content/internal/entity"
	"blogforge/services/content/internal/model"
)

func ToGenerationEntity(m *model.GenerationModel) *entity.Generation {
	if m == nil {
		return nil
	}

	var tips []string
	if m.SEOTips != "" {
		// Rows written before the tips feature hold invalid payloads; treat
		// them as having no tips.
		_ = json.Unmarshal([]byte(m.SEOTips), &tips)
	}

	return &entity.Generation{
		ID:         m.ID,
		UserID:     m.UserID,
		Topic:      m.Topic,
		ContentURL: m.ContentURL,
		SEOTips:    tips,
		Charged:    m.Charged,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ToGenerationModel(e *entity.Generation) *model.GenerationModel {
	if e == nil {
		return nil
	}

	tips := "[]"
	if len(e.SEOTips) > 0 {
		if raw, err := json.Marshal(e.SEOTips); err == nil {
			tips = string(raw)
		}
	}

	return &model.GenerationModel{
		ID:         e.ID,
		UserID:     e.UserID,
		Topic:      e.Topic,
		ContentURL: e.ContentURL,
		SEOTips:    tips,
		Charged:    e.Charged,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
