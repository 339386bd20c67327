package repository

import (
	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// CreateWithAnswers 在同一事务中写入题目及其全部选项
func (r *QuestionRepository) CreateWithAnswers(question *model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		answers := question.Answers
		question.Answers = nil
		if err := tx.Create(question).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].QuestionID = question.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		question.Answers = answers
		return nil
	})
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var q model.Question
	if err := r.DB.Preload("Answers").Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) List(topicID string) ([]model.Question, error) {
	var questions []model.Question
	query := r.DB.Preload("Answers")
	if topicID != "" {
		query = query.Where("topic_id = ?", topicID)
	}
	err := query.Order("created_at desc").Find(&questions).Error
	return questions, err
}

// Updates 只更新传入的列
func (r *QuestionRepository) Updates(id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteWithAnswers 级联删除题目和选项
func (r *QuestionRepository) DeleteWithAnswers(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Question{}).Error
	})
}

func (r *QuestionRepository) ListAnswers(questionID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("question_id = ?", questionID).Order("created_at asc").Find(&answers).Error
	return answers, err
}

func (r *QuestionRepository) FindAnswer(id string) (*model.Answer, error) {
	var a model.Answer
	if err := r.DB.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAnswer 整体覆盖选项
func (r *QuestionRepository) SaveAnswer(answer *model.Answer) error {
	return r.DB.Save(answer).Error
}

func (r *QuestionRepository) DeleteAnswer(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Answer{}).Error
}

func (r *QuestionRepository) CorrectAnswerIDs(questionID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.Answer{}).
		Where("question_id = ? AND is_correct = ?", questionID, true).
		Pluck("id", &ids).Error
	return ids, err
}

// RandomSample 随机抽取 n 道题，不足 n 道时返回 ErrNotEnoughQuestions
func (r *QuestionRepository) RandomSample(scope Scope, n int) ([]model.Question, error) {
	if n <= 0 {
		return []model.Question{}, nil
	}
	var questions []model.Question
	err := scope.apply(r.DB.Model(&model.Question{})).
		Preload("Answers").
		Order(randomOrder(r.DB)).
		Limit(n).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	if len(questions) < n {
		return nil, util.ErrNotEnoughQuestions
	}
	return questions, nil
}

func (r *QuestionRepository) Count(scope Scope) (int64, error) {
	var count int64
	err := scope.apply(r.DB.Model(&model.Question{})).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) SetPicture(id, key string) error {
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Update("picture", key).Error
}
