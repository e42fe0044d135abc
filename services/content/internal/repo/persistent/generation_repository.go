package persistent

import (
	"blogforge/services/content/internal/entity"
	"blogforge/services/content/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationRepository interface {
	Create(generation *entity.Generation) error
	GetByID(id string) (*entity.Generation, error)
	GetByUserID(userID string, limit, offset int) ([]*entity.Generation, error)
	MarkCharged(id string) error
}

type generationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(generation *entity.Generation) error {
	generationModel := ToGenerationModel(generation)
	if generationModel.ID == "" {
		generationModel.ID = uuid.New().String()
	}

	if err := r.db.Create(generationModel).Error; err != nil {
		return err
	}

	content := generation.Content
	*generation = *ToGenerationEntity(generationModel)
	generation.Content = content
	return nil
}

func (r *generationRepository) GetByID(id string) (*entity.Generation, error) {
	var generationModel model.GenerationModel
	if err := r.db.Where("id = ?", id).First(&generationModel).Error; err != nil {
		return nil, err
	}
	return ToGenerationEntity(&generationModel), nil
}

func (r *generationRepository) GetByUserID(userID string, limit, offset int) ([]*entity.Generation, error) {
	var generationModels []model.GenerationModel
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&generationModels).Error; err != nil {
		return nil, err
	}

	generations := make([]*entity.Generation, len(generationModels))
	for i := range generationModels {
		generations[i] = ToGenerationEntity(&generationModels[i])
	}
	return generations, nil
}

func (r *generationRepository) MarkCharged(id string) error {
	return r.db.Model(&model.GenerationModel{}).
		Where("id = ?", id).
		Update("charged", true).Error
}
