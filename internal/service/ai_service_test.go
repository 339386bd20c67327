package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatReply 按 chat completion 格式写回 content
func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "deepseek-chat",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
}

func newTestAIService(t *testing.T, handler http.HandlerFunc) *AIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAIService(config.AIConfig{
		BaseURL:        server.URL + "/v1",
		APIKey:         "test-key",
		Model:          "deepseek-chat",
		TimeoutSeconds: 5,
	})
}

func TestAIService_ScoreAnswerFenced(t *testing.T) {
	var auth string
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		chatReply(w, "```json\n{\"score\": 2, \"feedback\": \"Correct!\"}\n```")
	})

	res := svc.ScoreAnswer(context.Background(), "What is a goroutine?", "", "A lightweight thread")
	assert.Equal(t, ScoreResult{Score: 2, Feedback: "Correct!"}, res)
	assert.Equal(t, "Bearer test-key", auth)
}

func TestAIService_ScoreAnswerSendsReference(t *testing.T) {
	var body string
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		body = req.Messages[len(req.Messages)-1].Content
		chatReply(w, `{"score": 1, "feedback": "almost"}`)
	})

	res := svc.ScoreAnswer(context.Background(), "q", "ref", "ans")
	assert.Equal(t, 1, res.Score)
	assert.Contains(t, body, "Reference answer: ref")
	assert.Contains(t, body, "User answer: ans")
}

func TestAIService_ScoreAnswerDegrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			chatReply(w, "I think it is fine")
		}},
		{"score out of range", func(w http.ResponseWriter, r *http.Request) {
			chatReply(w, `{"score": 5, "feedback": "great"}`)
		}},
		{"missing feedback", func(w http.ResponseWriter, r *http.Request) {
			chatReply(w, `{"score": 2}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAIService(t, tt.handler)
			res := svc.ScoreAnswer(context.Background(), "q", "", "a")
			assert.Equal(t, 0, res.Score)
			assert.True(t, strings.HasPrefix(res.Feedback, "check_error"), res.Feedback)
		})
	}
}

func TestAIService_ScoreAnswerTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
			chatReply(w, `{"score": 2, "feedback": "too late"}`)
		}
	}))
	t.Cleanup(server.Close)

	svc := NewAIService(config.AIConfig{
		BaseURL:        server.URL + "/v1",
		APIKey:         "test-key",
		Model:          "deepseek-chat",
		TimeoutSeconds: 1,
	})

	start := time.Now()
	res := svc.ScoreAnswer(context.Background(), "q", "", "a")
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 0, res.Score)
	assert.True(t, strings.HasPrefix(res.Feedback, "check_error"), res.Feedback)
	assert.Contains(t, res.Feedback, "deadline exceeded")
}

func TestAIService_GenerateQuestions(t *testing.T) {
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, "```json\n{\"questions\": [{\"description\": \"one\"}, {\"description\": \"two\"}]}\n```")
	})

	qs, err := svc.GenerateQuestions(context.Background(), "Go", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, qs)
}

func TestAIService_GenerateQuestionsZeroSkipsCall(t *testing.T) {
	var calls int32
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		chatReply(w, `{"questions": []}`)
	})

	qs, err := svc.GenerateQuestions(context.Background(), "Go", 0)
	require.NoError(t, err)
	assert.Empty(t, qs)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAIService_GenerateQuestionsFailure(t *testing.T) {
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := svc.GenerateQuestions(context.Background(), "Go", 2)
	assert.ErrorIs(t, err, util.ErrScorerUnavailable)
}

func TestAIService_SummarizeFeedback(t *testing.T) {
	var items []FeedbackItem
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NoError(t, json.Unmarshal([]byte(req.Messages[1].Content), &items))
		chatReply(w, "Review channels.")
	})

	summary, err := svc.SummarizeFeedback(context.Background(), []FeedbackItem{
		{Question: "What is a channel?", IsCorrect: false},
	})
	require.NoError(t, err)
	assert.Equal(t, "Review channels.", summary)
	require.Len(t, items, 1)
	assert.False(t, items[0].IsCorrect)
}

func TestAIService_SummarizeFeedbackFailure(t *testing.T) {
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	})

	_, err := svc.SummarizeFeedback(context.Background(), []FeedbackItem{{Question: "q"}})
	assert.ErrorIs(t, err, util.ErrScorerUnavailable)
}

func TestAIService_UpdateConfig(t *testing.T) {
	var model string
	svc := newTestAIService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		model = req.Model
		chatReply(w, `{"score": 2, "feedback": "ok"}`)
	})

	cfg, _ := svc.snapshot()
	cfg.Model = "deepseek-reasoner"
	svc.UpdateConfig(cfg)

	svc.ScoreAnswer(context.Background(), "q", "", "a")
	assert.Equal(t, "deepseek-reasoner", model)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
