package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationModel struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Topic      string    `gorm:"type:text;not null" json:"topic"`
	ContentURL string    `gorm:"type:varchar(500);not null" json:"content_url"`
	SEOTips    string    `gorm:"type:text;not null;default:'[]'" json:"seo_tips"`
	Charged    bool      `gorm:"not null;default:false" json:"charged"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (GenerationModel) TableName() string {
	return "content_generations"
}

func (g *GenerationModel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}
