package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/util"
	"quiz_bank_backend/pkg/logger"
	"quiz_bank_backend/pkg/monitoring"
	"quiz_bank_backend/pkg/tracing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	callScore    = "score"
	callGenerate = "generate"
	callSummary  = "summary"

	checkErrorPrefix = "check_error"
)

const scorePrompt = "You check whether the user answered a question correctly. " +
	"If the answer is correct return score = 2 and feedback \"Correct!\". " +
	"If the answer is partially correct return score = 1 and your feedback. " +
	"If the answer is wrong return score = 0 and your feedback. " +
	"Do not grade too strictly. Write the feedback in the language of the question. " +
	"Return only a JSON object {\"score\": int, \"feedback\": string}."

const generatePrompt = "You write open-ended quiz questions that can be answered in a few sentences. " +
	"Write them in the language of the topic name. " +
	"Return only a JSON object {\"questions\": [{\"description\": string}]}."

const summaryPrompt = "You receive the list of questions a user answered and whether each answer was correct. " +
	"Give one holistic recommendation on what to study next. " +
	"This is a one-shot message: do not ask follow-up questions and do not offer further help."

// ScoreResult 开放题评分结果，Score 取值 0/1/2
type ScoreResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// FeedbackItem 汇总建议的输入项
type FeedbackItem struct {
	Question  string `json:"question"`
	IsCorrect bool   `json:"is_correct"`
}

// Scorer 外部评分接口
type Scorer interface {
	ScoreAnswer(ctx context.Context, description, reference, answer string) ScoreResult
	GenerateQuestions(ctx context.Context, topicName string, count int) ([]string, error)
	SummarizeFeedback(ctx context.Context, items []FeedbackItem) (string, error)
}

const (
	scoreSchema = `{
		"type": "object",
		"required": ["score", "feedback"],
		"properties": {
			"score": {"type": "integer", "minimum": 0, "maximum": 2},
			"feedback": {"type": "string"}
		}
	}`
	generateSchema = `{
		"type": "object",
		"required": ["questions"],
		"properties": {
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["description"],
					"properties": {"description": {"type": "string"}}
				}
			}
		}
	}`
)

// schemaCache 按名称缓存编译后的 schema
var schemaCache sync.Map

type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *openai.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	s := &AIService{}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig 热更新模型、密钥与超时
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	s.mu.Lock()
	s.config = cfg
	s.client = client
	s.mu.Unlock()
}

func (s *AIService) snapshot() (config.AIConfig, *openai.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

// chat 发送一次 chat completion 请求并返回去除代码块包裹后的内容
func (s *AIService) chat(ctx context.Context, kind, system, user string) (content string, err error) {
	cfg, client := s.snapshot()

	ctx, span := tracing.StartSpan(ctx, "ai."+kind, attribute.String("ai.model", cfg.Model))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		monitoring.ScorerCalls.WithLabelValues(kind, outcome).Inc()
		monitoring.ScorerDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("status: %d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("AI returned no choices")
	}

	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

// stripCodeFence 去掉 ```json ... ``` 包裹
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeValidated 校验 schema 后解码到 out
func decodeValidated(name, schema, raw string, out any) error {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema(name, schema)
	if err != nil {
		return err
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return json.Unmarshal([]byte(raw), out)
}

func compiledSchema(name, schema string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def, err := jsonschema.UnmarshalJSON(strings.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// ScoreAnswer 对开放题作答评分，任何失败都降级为 0 分
func (s *AIService) ScoreAnswer(ctx context.Context, description, reference, answer string) ScoreResult {
	user := fmt.Sprintf("Question: %s. User answer: %s", description, answer)
	if reference != "" {
		user = fmt.Sprintf("Question: %s. Reference answer: %s. User answer: %s", description, reference, answer)
	}

	content, err := s.chat(ctx, callScore, scorePrompt, user)
	if err != nil {
		logger.Log.Warn("Score answer failed", zap.Error(err))
		return ScoreResult{Score: 0, Feedback: fmt.Sprintf("%s: %v", checkErrorPrefix, err)}
	}

	var result ScoreResult
	if err := decodeValidated("score", scoreSchema, content, &result); err != nil {
		logger.Log.Warn("Invalid score reply", zap.String("content", content), zap.Error(err))
		return ScoreResult{Score: 0, Feedback: fmt.Sprintf("%s: %v", checkErrorPrefix, err)}
	}
	return result
}

// GenerateQuestions 按主题生成开放题，返回数量不保证等于 count
func (s *AIService) GenerateQuestions(ctx context.Context, topicName string, count int) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}

	user := fmt.Sprintf("Topic: %s. Number of questions: %d", topicName, count)
	content, err := s.chat(ctx, callGenerate, generatePrompt, user)
	if err != nil {
		return nil, fmt.Errorf("%w: generate questions: %v", util.ErrScorerUnavailable, err)
	}

	var reply struct {
		Questions []struct {
			Description string `json:"description"`
		} `json:"questions"`
	}
	if err := decodeValidated("generate", generateSchema, content, &reply); err != nil {
		return nil, fmt.Errorf("%w: generate questions: %v", util.ErrScorerUnavailable, err)
	}

	questions := make([]string, 0, len(reply.Questions))
	for _, q := range reply.Questions {
		questions = append(questions, q.Description)
	}
	return questions, nil
}

// SummarizeFeedback 根据全部作答结果生成一次性的学习建议
func (s *AIService) SummarizeFeedback(ctx context.Context, items []FeedbackItem) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", err
	}

	content, err := s.chat(ctx, callSummary, summaryPrompt, string(payload))
	if err != nil {
		return "", fmt.Errorf("%w: summarize feedback: %v", util.ErrScorerUnavailable, err)
	}
	return content, nil
}
