package repository

import (
	"quiz_bank_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) ListByUser(userID string, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	query := r.DB.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&attempts).Error
	return attempts, err
}
