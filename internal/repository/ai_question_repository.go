package repository

import (
	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/util"

	"gorm.io/gorm"
)

type AIQuestionRepository struct {
	DB *gorm.DB
}

func NewAIQuestionRepository(db *gorm.DB) *AIQuestionRepository {
	return &AIQuestionRepository{DB: db}
}

func (r *AIQuestionRepository) Create(q *model.AIQuestion) error {
	return r.DB.Create(q).Error
}

func (r *AIQuestionRepository) FindByID(id string) (*model.AIQuestion, error) {
	var q model.AIQuestion
	if err := r.DB.Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *AIQuestionRepository) FindByIDs(ids []string) ([]model.AIQuestion, error) {
	var qs []model.AIQuestion
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

func (r *AIQuestionRepository) List(topicID string) ([]model.AIQuestion, error) {
	var qs []model.AIQuestion
	query := r.DB.Model(&model.AIQuestion{})
	if topicID != "" {
		query = query.Where("topic_id = ?", topicID)
	}
	err := query.Order("created_at desc").Find(&qs).Error
	return qs, err
}

// Save 整体覆盖
func (r *AIQuestionRepository) Save(q *model.AIQuestion) error {
	return r.DB.Save(q).Error
}

func (r *AIQuestionRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.AIQuestion{}).Error
}

func (r *AIQuestionRepository) RandomSample(scope Scope, n int) ([]model.AIQuestion, error) {
	if n <= 0 {
		return []model.AIQuestion{}, nil
	}
	var qs []model.AIQuestion
	err := scope.apply(r.DB.Model(&model.AIQuestion{})).
		Order(randomOrder(r.DB)).
		Limit(n).
		Find(&qs).Error
	if err != nil {
		return nil, err
	}
	if len(qs) < n {
		return nil, util.ErrNotEnoughQuestions
	}
	return qs, nil
}

func (r *AIQuestionRepository) Count(scope Scope) (int64, error) {
	var count int64
	err := scope.apply(r.DB.Model(&model.AIQuestion{})).Count(&count).Error
	return count, err
}

func (r *AIQuestionRepository) SetPicture(id, key string) error {
	return r.DB.Model(&model.AIQuestion{}).Where("id = ?", id).Update("picture", key).Error
}
