package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/util"
	"quiz_bank_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnswerRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	Description string          `json:"description" binding:"required"`
	Type        int             `json:"type" binding:"oneof=0 1"`
	Explanation string          `json:"explanation"`
	TopicID     string          `json:"topic_id" binding:"required"`
	Answers     []AnswerRequest `json:"answers"`
}

// UpdateQuestionRequest 只更新非空字段
type UpdateQuestionRequest struct {
	Description *string `json:"description"`
	Type        *int    `json:"type" binding:"omitempty,oneof=0 1"`
	Explanation *string `json:"explanation"`
	TopicID     *string `json:"topic_id"`
}

type AIQuestionRequest struct {
	Description string `json:"description" binding:"required"`
	Explanation string `json:"explanation"`
	TopicID     string `json:"topic_id" binding:"required"`
}

type CheckAnswersRequest struct {
	QuestionID string   `json:"question_id" binding:"required"`
	AnswerIDs  []string `json:"answer_ids"`
}

type CheckAIAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Text       string `json:"text"`
}

type CheckResult struct {
	QuestionID       string   `json:"question_id"`
	IsCorrect        bool     `json:"is_correct"`
	CorrectAnswerIDs []string `json:"correct_answer_ids"`
	Explanation      string   `json:"explanation"`
}

type PictureUpload struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	QuestionID string `json:"question_id"`
}

type QuestionService struct {
	QuestionRepo   *repository.QuestionRepository
	AIQuestionRepo *repository.AIQuestionRepository
	TopicRepo      *repository.TopicRepository
	Scorer         Scorer
	Storage        *StorageService
}

func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	aiQuestionRepo *repository.AIQuestionRepository,
	topicRepo *repository.TopicRepository,
	scorer Scorer,
	storage *StorageService,
) *QuestionService {
	return &QuestionService{
		QuestionRepo:   questionRepo,
		AIQuestionRepo: aiQuestionRepo,
		TopicRepo:      topicRepo,
		Scorer:         scorer,
		Storage:        storage,
	}
}

func (s *QuestionService) ensureTopic(topicID string) error {
	_, err := s.TopicRepo.FindTopic(topicID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrTopicNotFound
	}
	return err
}

func (s *QuestionService) findQuestion(id string) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionService) findAIQuestion(id string) (*model.AIQuestion, error) {
	q, err := s.AIQuestionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionService) CreateQuestion(authorID string, req CreateQuestionRequest) (*model.Question, error) {
	if err := s.ensureTopic(req.TopicID); err != nil {
		return nil, err
	}

	q := &model.Question{
		AuthorID:    authorID,
		Description: req.Description,
		Type:        req.Type,
		Explanation: req.Explanation,
		TopicID:     req.TopicID,
	}
	for _, a := range req.Answers {
		q.Answers = append(q.Answers, model.Answer{Text: a.Text, IsCorrect: a.IsCorrect})
	}

	if err := s.QuestionRepo.CreateWithAnswers(q); err != nil {
		logger.Log.Error("Failed to create question", zap.String("topicId", req.TopicID), zap.Error(err))
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) ListQuestions(topicID string) ([]model.Question, error) {
	return s.QuestionRepo.List(topicID)
}

// ListAnswers 题目不存在时返回空列表
func (s *QuestionService) ListAnswers(questionID string) ([]model.Answer, error) {
	return s.QuestionRepo.ListAnswers(questionID)
}

func (s *QuestionService) UpdateQuestion(id string, req UpdateQuestionRequest) (*model.Question, error) {
	if _, err := s.findQuestion(id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Explanation != nil {
		updates["explanation"] = *req.Explanation
	}
	if req.TopicID != nil {
		if err := s.ensureTopic(*req.TopicID); err != nil {
			return nil, err
		}
		updates["topic_id"] = *req.TopicID
	}

	if err := s.QuestionRepo.Updates(id, updates); err != nil {
		return nil, err
	}
	return s.findQuestion(id)
}

func (s *QuestionService) DeleteQuestion(id string) error {
	if _, err := s.findQuestion(id); err != nil {
		return err
	}
	return s.QuestionRepo.DeleteWithAnswers(id)
}

// UpdateAnswer 整体覆盖选项内容
func (s *QuestionService) UpdateAnswer(id string, req AnswerRequest) (*model.Answer, error) {
	answer, err := s.QuestionRepo.FindAnswer(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	} else if err != nil {
		return nil, err
	}

	answer.Text = req.Text
	answer.IsCorrect = req.IsCorrect
	if err := s.QuestionRepo.SaveAnswer(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *QuestionService) DeleteAnswer(id string) error {
	if _, err := s.QuestionRepo.FindAnswer(id); errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrAnswerNotFound
	} else if err != nil {
		return err
	}
	return s.QuestionRepo.DeleteAnswer(id)
}

// CheckAnswers 单题判分
func (s *QuestionService) CheckAnswers(req CheckAnswersRequest) (*CheckResult, error) {
	q, err := s.findQuestion(req.QuestionID)
	if err != nil {
		return nil, err
	}
	correct, err := s.QuestionRepo.CorrectAnswerIDs(q.ID)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		QuestionID:       q.ID,
		IsCorrect:        Evaluate(q.Type, correct, req.AnswerIDs),
		CorrectAnswerIDs: correct,
		Explanation:      q.Explanation,
	}, nil
}

func (s *QuestionService) CreateAIQuestion(authorID string, req AIQuestionRequest) (*model.AIQuestion, error) {
	if err := s.ensureTopic(req.TopicID); err != nil {
		return nil, err
	}
	q := &model.AIQuestion{
		AuthorID:    authorID,
		Description: req.Description,
		Explanation: req.Explanation,
		TopicID:     req.TopicID,
	}
	if err := s.AIQuestionRepo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) ListAIQuestions(topicID string) ([]model.AIQuestion, error) {
	return s.AIQuestionRepo.List(topicID)
}

// UpdateAIQuestion 整体覆盖开放题，作者与图片保持不变
func (s *QuestionService) UpdateAIQuestion(id string, req AIQuestionRequest) (*model.AIQuestion, error) {
	q, err := s.findAIQuestion(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTopic(req.TopicID); err != nil {
		return nil, err
	}

	q.Description = req.Description
	q.Explanation = req.Explanation
	q.TopicID = req.TopicID
	if err := s.AIQuestionRepo.Save(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) DeleteAIQuestion(id string) error {
	if _, err := s.findAIQuestion(id); err != nil {
		return err
	}
	return s.AIQuestionRepo.Delete(id)
}

func (s *QuestionService) CheckAIAnswer(ctx context.Context, req CheckAIAnswerRequest) (*ScoreResult, error) {
	q, err := s.findAIQuestion(req.QuestionID)
	if err != nil {
		return nil, err
	}
	res := s.Scorer.ScoreAnswer(ctx, q.Description, q.Explanation, req.Text)
	return &res, nil
}

// UploadPicture 仅题目作者可上传，选择题与开放题共用
func (s *QuestionService) UploadPicture(ctx context.Context, userID, questionID, filename string, reader io.Reader, size int64, contentType string) (*PictureUpload, error) {
	authorID, setPicture, err := s.pictureOwner(questionID)
	if err != nil {
		return nil, err
	}
	if authorID != userID {
		return nil, util.ErrPermissionDenied
	}

	key := path.Join("uploads", userID, questionID, filepath.Base(filename))
	url, err := s.Storage.Upload(ctx, key, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload picture: %w", err)
	}
	if err := setPicture(key); err != nil {
		return nil, err
	}

	logger.Log.Info("Question picture uploaded", zap.String("questionId", questionID), zap.String("key", key))
	return &PictureUpload{Key: key, URL: url, QuestionID: questionID}, nil
}

// OpenPicture 返回图片内容与文件名
func (s *QuestionService) OpenPicture(ctx context.Context, questionID string) (io.ReadCloser, string, error) {
	key, err := s.pictureKey(questionID)
	if err != nil {
		return nil, "", err
	}
	if key == "" {
		return nil, "", util.ErrPictureNotFound
	}
	body, err := s.Storage.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return body, path.Base(key), nil
}

func (s *QuestionService) pictureOwner(questionID string) (string, func(string) error, error) {
	if q, err := s.QuestionRepo.FindByID(questionID); err == nil {
		return q.AuthorID, func(key string) error { return s.QuestionRepo.SetPicture(questionID, key) }, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	q, err := s.findAIQuestion(questionID)
	if err != nil {
		return "", nil, err
	}
	return q.AuthorID, func(key string) error { return s.AIQuestionRepo.SetPicture(questionID, key) }, nil
}

func (s *QuestionService) pictureKey(questionID string) (string, error) {
	if q, err := s.QuestionRepo.FindByID(questionID); err == nil {
		return q.Picture, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	q, err := s.findAIQuestion(questionID)
	if err != nil {
		return "", err
	}
	return q.Picture, nil
}
