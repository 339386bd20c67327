package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	app    *App
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// 评分接口：摘要返回固定文本，评分返回满分
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Keep practising."
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 &&
			strings.Contains(req.Messages[len(req.Messages)-1].Content, "User answer:") {
			content = `{"score": 2, "feedback": "Correct"}`
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "deepseek-chat",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(llm.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: t.TempDir(),
		},
		AI: config.AIConfig{
			BaseURL:        llm.URL + "/v1",
			APIKey:         "test-key",
			Model:          "deepseek-chat",
			TimeoutSeconds: 5,
		},
		Report: config.ReportConfig{OutputDir: t.TempDir()},
	}

	a := New(cfg, db)
	return &testServer{t: t, app: a, router: a.Router}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s *testServer) studentToken() string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": "Stu", "email": "stu@example.com", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return s.login("stu@example.com", "password123")
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	auth := service.NewAuthService(repository.NewUserRepository(s.app.DB), s.app.Config)
	_, err := auth.CreateAdmin("Root", "root@example.com", "password123")
	require.NoError(s.t, err)
	return s.login("root@example.com", "password123")
}

func decodeID(t *testing.T, env envelope) string {
	t.Helper()
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.ID)
	return data.ID
}

// seedTopic 以管理员身份创建章节和知识点
func (s *testServer) seedTopic(admin string) (chapterID, topicID string) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/chapters", admin, map[string]string{"name": "Concurrency"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	chapterID = decodeID(s.t, env)

	w, env = s.do(http.MethodPost, "/api/topics", admin, map[string]string{"chapter_id": chapterID, "name": "Goroutines"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	topicID = decodeID(s.t, env)
	return chapterID, topicID
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, env.Code)

	w, _ = s.do(http.MethodGet, "/api/quiz?topic_id=x&n=1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.studentToken()
	w, env = s.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "stu@example.com")
	assert.NotContains(t, string(env.Data), "password123")

	w, _ = s.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": "Dup", "email": "stu@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "stu@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	student := s.studentToken()
	admin := s.adminToken()

	w, _ := s.do(http.MethodPost, "/api/chapters", student, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	chapterID, topicID := s.seedTopic(admin)

	w, _ = s.do(http.MethodGet, "/api/chapters", student, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/topics?chapter_id="+chapterID, student, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), topicID)

	w, _ = s.do(http.MethodDelete, "/api/chapters/"+chapterID, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/topics/"+topicID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/chapters/"+chapterID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuizFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	student := s.studentToken()
	chapterID, topicID := s.seedTopic(admin)

	w, env := s.do(http.MethodPost, "/api/questions", student, map[string]any{
		"description": "Which keyword starts a goroutine?",
		"type":        0,
		"topic_id":    topicID,
		"answers": []map[string]any{
			{"text": "go", "is_correct": true},
			{"text": "defer", "is_correct": false},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	questionID := decodeID(t, env)

	w, env = s.do(http.MethodPost, "/api/ai-questions", student, map[string]any{
		"description": "Explain channels.",
		"topic_id":    topicID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	aiQuestionID := decodeID(t, env)

	t.Run("counts are required", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/quiz?n=1&k=0&topic_id="+topicID, student, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = s.do(http.MethodGet, "/api/quiz?n=101&k=0&m=0&topic_id="+topicID, student, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("mis-specified scope is 404", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/quiz?n=1&k=0&m=0", student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/quiz?n=1&k=0&m=0&topic_id=%s&chapter_id=%s", topicID, chapterID), student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(http.MethodGet, "/api/quiz?n=0&k=0&m=0&topic_id=no-such-topic", student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(http.MethodGet, "/api/quiz/count?chapter_id=no-such-chapter", student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("not enough questions", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/quiz?n=5&k=0&m=0&topic_id="+topicID, student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("assembled quiz hides correctness", func(t *testing.T) {
		w, env := s.do(http.MethodGet, fmt.Sprintf("/api/quiz?n=1&k=1&m=0&chapter_id=%s", chapterID), student, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var quiz service.QuizResponse
		require.NoError(t, json.Unmarshal(env.Data, &quiz))
		require.Len(t, quiz.Questions, 1)
		assert.Equal(t, questionID, quiz.Questions[0].ID)
		assert.Len(t, quiz.Questions[0].Answers, 2)
		require.Len(t, quiz.AIQuestions, 1)
		assert.NotContains(t, string(env.Data), "is_correct")
		assert.NotContains(t, string(env.Data), "isCorrect")
	})

	t.Run("count", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/quiz/count?topic_id="+topicID, student, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var count service.QuestionCount
		require.NoError(t, json.Unmarshal(env.Data, &count))
		assert.Equal(t, service.QuestionCount{Questions: 1, AIQuestions: 1}, count)
	})

	var correctID string
	w, env = s.do(http.MethodGet, "/api/questions/"+questionID+"/answers", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var answers []struct {
		ID        string `json:"id"`
		IsCorrect bool   `json:"isCorrect"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &answers))
	for _, a := range answers {
		if a.IsCorrect {
			correctID = a.ID
		}
	}
	require.NotEmpty(t, correctID)

	t.Run("submit grades and records attempt", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/quiz/submit", student, map[string]any{
			"answers":    []map[string]any{{"question_id": questionID, "answer_ids": []string{correctID}}},
			"ai_answers": []map[string]any{{"question_id": aiQuestionID, "text": "Typed conduits."}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result service.QuizResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, 2, result.TotalQuestions)
		assert.Equal(t, 2, result.TotalCorrectAnswers)
		assert.Equal(t, 100.0, result.ScorePercent)
		assert.Equal(t, "Keep practising.", result.AIRecommendations)

		w, env = s.do(http.MethodGet, "/api/quiz/attempts", student, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"scorePercent":100`)
	})

	t.Run("unknown question is 404", func(t *testing.T) {
		w, _ := s.do(http.MethodPost, "/api/quiz/submit", student, map[string]any{
			"answers": []map[string]any{{"question_id": "00000000-0000-0000-0000-000000000000", "answer_ids": []string{}}},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("report lifecycle", func(t *testing.T) {
		w, env := s.do(http.MethodPost, "/api/reports", student, map[string]any{
			"total_questions":       1,
			"total_correct_answers": 1,
			"score_percent":         100,
			"answers": []map[string]any{{
				"question_id": questionID, "kind": "fixed", "description": "Which keyword?", "is_correct": true,
			}},
			"ai_recommendations": "Keep going.",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		reportID := decodeID(t, env)

		w, _ = s.do(http.MethodGet, "/api/reports/"+reportID, student, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

		w, _ = s.do(http.MethodDelete, "/api/reports/"+reportID, student, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(http.MethodGet, "/api/reports/"+reportID, student, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("question delete cascades answers", func(t *testing.T) {
		w, _ := s.do(http.MethodDelete, "/api/questions/"+questionID, student, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, env := s.do(http.MethodGet, "/api/questions/"+questionID+"/answers", student, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var left []json.RawMessage
		require.NoError(t, json.Unmarshal(env.Data, &left))
		assert.Empty(t, left)
	})
}

func TestQuestionPictureDownloadEscapesFilename(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	student := s.studentToken()
	_, topicID := s.seedTopic(admin)

	w, env := s.do(http.MethodPost, "/api/ai-questions", student, map[string]any{
		"description": "Describe the diagram.",
		"topic_id":    topicID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	questionID := decodeID(t, env)

	filename := `net "diagram".png`
	pngData := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(pngData)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/questions/"+questionID+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+student)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w, _ = s.do(http.MethodGet, "/api/files/questions/"+questionID+"/picture", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngData, w.Body.Bytes())

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, filename, params["filename"])
}

func TestConfigCallbackUpdatesScorer(t *testing.T) {
	s := newTestServer(t)

	var got string
	s.app.RegisterConfigCallback(func(cfg *config.Config) { got = cfg.AI.Model })

	next := *s.app.Config
	next.AI.Model = "deepseek-reasoner"
	s.app.ApplyConfig(&next)

	assert.Equal(t, "deepseek-reasoner", got)
}
