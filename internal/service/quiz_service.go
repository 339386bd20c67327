package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/util"
	"quiz_bank_backend/pkg/logger"
	"quiz_bank_backend/pkg/monitoring"
	"quiz_bank_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 作答结果的题目类别
const (
	KindFixed     = "fixed"
	KindAI        = "ai"
	KindGenerated = "generated"
)

const attemptHistoryLimit = 50

type QuizRequest struct {
	TopicID   string
	ChapterID string
	Count     int
	AICount   int
	GenCount  int
}

type QuizAnswer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizQuestion 下发给作答者的选择题，不含正确答案
type QuizQuestion struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Type        int          `json:"type"`
	TopicID     string       `json:"topic_id"`
	Picture     string       `json:"picture,omitempty"`
	Answers     []QuizAnswer `json:"answers"`
}

// QuizAIQuestion 下发给作答者的开放题，不含参考答案
type QuizAIQuestion struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	TopicID     string `json:"topic_id"`
	Picture     string `json:"picture,omitempty"`
}

// GeneratedQuestion 临时生成的开放题，不入库
type GeneratedQuestion struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type QuizResponse struct {
	Questions    []QuizQuestion      `json:"questions"`
	AIQuestions  []QuizAIQuestion    `json:"ai_questions"`
	GenQuestions []GeneratedQuestion `json:"gen_questions"`
}

type QuestionCount struct {
	Questions   int64 `json:"questions"`
	AIQuestions int64 `json:"ai_questions"`
}

type FixedAnswer struct {
	QuestionID string   `json:"question_id" binding:"required"`
	AnswerIDs  []string `json:"answer_ids"`
}

type FreeTextAnswer struct {
	QuestionID string `json:"question_id" binding:"required"`
	Text       string `json:"text"`
}

// GeneratedAnswer 以客户端回传的题干评分
type GeneratedAnswer struct {
	QuestionID  string `json:"question_id"`
	Description string `json:"description" binding:"required"`
	Text        string `json:"text"`
}

type QuizSubmission struct {
	Answers    []FixedAnswer     `json:"answers" binding:"dive"`
	AIAnswers  []FreeTextAnswer  `json:"ai_answers" binding:"dive"`
	GenAnswers []GeneratedAnswer `json:"gen_answers" binding:"dive"`
}

type AnswerResult struct {
	QuestionID  string `json:"question_id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

type QuizResult struct {
	TotalQuestions      int            `json:"total_questions"`
	TotalCorrectAnswers int            `json:"total_correct_answers"`
	ScorePercent        float64        `json:"score_percent"`
	Answers             []AnswerResult `json:"answers"`
	AIRecommendations   string         `json:"ai_recommendations"`
}

type QuizService struct {
	QuestionRepo   *repository.QuestionRepository
	AIQuestionRepo *repository.AIQuestionRepository
	TopicRepo      *repository.TopicRepository
	AttemptRepo    *repository.AttemptRepository
	Scorer         Scorer
	Concurrency    int
}

func NewQuizService(
	questionRepo *repository.QuestionRepository,
	aiQuestionRepo *repository.AIQuestionRepository,
	topicRepo *repository.TopicRepository,
	attemptRepo *repository.AttemptRepository,
	scorer Scorer,
	concurrency int,
) *QuizService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &QuizService{
		QuestionRepo:   questionRepo,
		AIQuestionRepo: aiQuestionRepo,
		TopicRepo:      topicRepo,
		AttemptRepo:    attemptRepo,
		Scorer:         scorer,
		Concurrency:    concurrency,
	}
}

// scopeOf 校验只指定了 topic 或 chapter 之一
func scopeOf(topicID, chapterID string) (repository.Scope, error) {
	if (topicID == "") == (chapterID == "") {
		return repository.Scope{}, util.ErrInvalidScope
	}
	return repository.Scope{TopicID: topicID, ChapterID: chapterID}, nil
}

// scopeName 返回主题名，章节范围时返回章节名
func (s *QuizService) scopeName(scope repository.Scope) (string, error) {
	if scope.TopicID != "" {
		topic, err := s.TopicRepo.FindTopic(scope.TopicID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrScopeNotFound
		} else if err != nil {
			return "", err
		}
		return topic.Name, nil
	}

	chapter, err := s.TopicRepo.FindChapter(scope.ChapterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrScopeNotFound
	} else if err != nil {
		return "", err
	}
	return chapter.Name, nil
}

func (s *QuizService) AssembleQuiz(ctx context.Context, req QuizRequest) (quiz *QuizResponse, err error) {
	scope, err := scopeOf(req.TopicID, req.ChapterID)
	if err != nil {
		return nil, err
	}
	if req.Count < 0 || req.Count > util.MaxQuizQuestions ||
		req.AICount < 0 || req.AICount > util.MaxQuizAIQuestions ||
		req.GenCount < 0 || req.GenCount > util.MaxQuizGenerated {
		return nil, util.ErrInvalidQuizParams
	}

	ctx, span := tracing.StartSpan(ctx, "quiz.assemble",
		attribute.Int("quiz.count", req.Count),
		attribute.Int("quiz.ai_count", req.AICount),
		attribute.Int("quiz.gen_count", req.GenCount),
	)
	defer func() { tracing.EndSpan(span, err) }()

	name, err := s.scopeName(scope)
	if err != nil {
		return nil, err
	}

	questions, err := s.QuestionRepo.RandomSample(scope, req.Count)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	aiQuestions, err := s.AIQuestionRepo.RandomSample(scope, req.AICount)
	if err != nil {
		return nil, fmt.Errorf("sample ai questions: %w", err)
	}

	quiz = &QuizResponse{
		Questions:    make([]QuizQuestion, 0, len(questions)),
		AIQuestions:  make([]QuizAIQuestion, 0, len(aiQuestions)),
		GenQuestions: []GeneratedQuestion{},
	}
	for _, q := range questions {
		item := QuizQuestion{
			ID:          q.ID,
			Description: q.Description,
			Type:        q.Type,
			TopicID:     q.TopicID,
			Picture:     q.Picture,
			Answers:     make([]QuizAnswer, 0, len(q.Answers)),
		}
		for _, a := range q.Answers {
			item.Answers = append(item.Answers, QuizAnswer{ID: a.ID, Text: a.Text})
		}
		quiz.Questions = append(quiz.Questions, item)
	}
	for _, q := range aiQuestions {
		quiz.AIQuestions = append(quiz.AIQuestions, QuizAIQuestion{
			ID:          q.ID,
			Description: q.Description,
			TopicID:     q.TopicID,
			Picture:     q.Picture,
		})
	}

	if req.GenCount > 0 {
		generated, err := s.Scorer.GenerateQuestions(ctx, name, req.GenCount)
		if err != nil {
			return nil, err
		}
		for i, text := range generated {
			quiz.GenQuestions = append(quiz.GenQuestions, GeneratedQuestion{
				ID:          fmt.Sprintf("gen-%d", i+1),
				Description: text,
			})
		}
	}

	return quiz, nil
}

func (s *QuizService) CountQuestions(ctx context.Context, topicID, chapterID string) (*QuestionCount, error) {
	scope, err := scopeOf(topicID, chapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.scopeName(scope); err != nil {
		return nil, err
	}

	fixed, err := s.QuestionRepo.Count(scope)
	if err != nil {
		return nil, err
	}
	open, err := s.AIQuestionRepo.Count(scope)
	if err != nil {
		return nil, err
	}
	return &QuestionCount{Questions: fixed, AIQuestions: open}, nil
}

// freeTextJob 待外部评分的开放题
type freeTextJob struct {
	index       int
	description string
	reference   string
	answer      string
}

// SubmitQuiz 批改一次提交：选择题本地判分，开放题并发调用外部评分，最后生成一次学习建议
func (s *QuizService) SubmitQuiz(ctx context.Context, userID string, sub QuizSubmission) (result *QuizResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.submit",
		attribute.Int("quiz.answers", len(sub.Answers)),
		attribute.Int("quiz.ai_answers", len(sub.AIAnswers)),
		attribute.Int("quiz.gen_answers", len(sub.GenAnswers)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	total := len(sub.Answers) + len(sub.AIAnswers) + len(sub.GenAnswers)
	results := make([]AnswerResult, 0, total)

	for _, ans := range sub.Answers {
		q, err := s.QuestionRepo.FindByID(ans.QuestionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", util.ErrQuestionNotFound, ans.QuestionID)
		} else if err != nil {
			return nil, err
		}

		correct := make([]string, 0, len(q.Answers))
		for _, a := range q.Answers {
			if a.IsCorrect {
				correct = append(correct, a.ID)
			}
		}

		results = append(results, AnswerResult{
			QuestionID:  q.ID,
			Kind:        KindFixed,
			Description: q.Description,
			IsCorrect:   Evaluate(q.Type, correct, ans.AnswerIDs),
			Explanation: q.Explanation,
		})
	}

	jobs := make([]freeTextJob, 0, len(sub.AIAnswers)+len(sub.GenAnswers))
	if len(sub.AIAnswers) > 0 {
		ids := make([]string, 0, len(sub.AIAnswers))
		for _, ans := range sub.AIAnswers {
			ids = append(ids, ans.QuestionID)
		}
		stored, err := s.AIQuestionRepo.FindByIDs(ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]model.AIQuestion, len(stored))
		for _, q := range stored {
			byID[q.ID] = q
		}

		for _, ans := range sub.AIAnswers {
			q, ok := byID[ans.QuestionID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", util.ErrQuestionNotFound, ans.QuestionID)
			}
			jobs = append(jobs, freeTextJob{index: len(results), description: q.Description, reference: q.Explanation, answer: ans.Text})
			results = append(results, AnswerResult{QuestionID: q.ID, Kind: KindAI, Description: q.Description})
		}
	}
	for _, ans := range sub.GenAnswers {
		jobs = append(jobs, freeTextJob{index: len(results), description: ans.Description, answer: ans.Text})
		results = append(results, AnswerResult{QuestionID: ans.QuestionID, Kind: KindGenerated, Description: ans.Description})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			res := s.Scorer.ScoreAnswer(gctx, job.description, job.reference, job.answer)
			results[job.index].IsCorrect = res.Score > 0
			results[job.index].Explanation = res.Feedback
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result = &QuizResult{
		TotalQuestions: total,
		Answers:        results,
	}
	for _, r := range results {
		if r.IsCorrect {
			result.TotalCorrectAnswers++
		}
	}
	result.ScorePercent = scorePercent(result.TotalCorrectAnswers, total)

	if total > 0 {
		items := make([]FeedbackItem, 0, total)
		for _, r := range results {
			items = append(items, FeedbackItem{Question: r.Description, IsCorrect: r.IsCorrect})
		}
		summary, err := s.Scorer.SummarizeFeedback(ctx, items)
		if err != nil {
			return nil, err
		}
		result.AIRecommendations = summary
	}

	if err := s.saveAttempt(userID, result); err != nil {
		return nil, err
	}
	monitoring.QuizScore.Observe(result.ScorePercent)

	return result, nil
}

func (s *QuizService) saveAttempt(userID string, result *QuizResult) error {
	details, err := json.Marshal(result.Answers)
	if err != nil {
		return err
	}
	attempt := &model.QuizAttempt{
		UserID:         userID,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.TotalCorrectAnswers,
		ScorePercent:   result.ScorePercent,
		Details:        datatypes.JSON(details),
		Recommendation: result.AIRecommendations,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		logger.Log.Error("Failed to save quiz attempt", zap.String("userId", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *QuizService) ListAttempts(ctx context.Context, userID string) ([]model.QuizAttempt, error) {
	return s.AttemptRepo.ListByUser(userID, attemptHistoryLimit)
}

// scorePercent 保留两位小数，total 为 0 时返回 0
func scorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}
