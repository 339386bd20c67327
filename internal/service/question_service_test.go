package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuestionService(t *testing.T, f *quizFixture) *QuestionService {
	t.Helper()
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}}
	return NewQuestionService(f.svc.QuestionRepo, f.svc.AIQuestionRepo, f.svc.TopicRepo, f.scorer, NewStorageService(cfg))
}

func TestQuestionService_CreateRequiresTopic(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)

	_, err := svc.CreateQuestion("author", CreateQuestionRequest{Description: "d", TopicID: "missing"})
	assert.ErrorIs(t, err, util.ErrTopicNotFound)

	_, err = svc.CreateAIQuestion("author", AIQuestionRequest{Description: "d", TopicID: "missing"})
	assert.ErrorIs(t, err, util.ErrTopicNotFound)
}

func TestQuestionService_PartialUpdate(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)

	q, err := svc.CreateQuestion("author", CreateQuestionRequest{
		Description: "old",
		Explanation: "keep me",
		TopicID:     f.topic.ID,
		Answers:     []AnswerRequest{{Text: "a", IsCorrect: true}},
	})
	require.NoError(t, err)

	desc := "new"
	updated, err := svc.UpdateQuestion(q.ID, UpdateQuestionRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, "keep me", updated.Explanation)
	assert.Len(t, updated.Answers, 1)

	_, err = svc.UpdateQuestion("missing", UpdateQuestionRequest{Description: &desc})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestQuestionService_AnswerFullUpdate(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)
	q := f.addQuestion(t)

	answer, err := svc.UpdateAnswer(q.Answers[0].ID, AnswerRequest{Text: "goroutine"})
	require.NoError(t, err)
	assert.Equal(t, "goroutine", answer.Text)
	assert.False(t, answer.IsCorrect)

	_, err = svc.UpdateAnswer("missing", AnswerRequest{})
	assert.ErrorIs(t, err, util.ErrAnswerNotFound)
	assert.ErrorIs(t, svc.DeleteAnswer("missing"), util.ErrAnswerNotFound)
}

func TestQuestionService_CheckAnswers(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)
	q := f.addQuestion(t)

	res, err := svc.CheckAnswers(CheckAnswersRequest{QuestionID: q.ID, AnswerIDs: []string{q.Answers[0].ID}})
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, []string{q.Answers[0].ID}, res.CorrectAnswerIDs)

	res, err = svc.CheckAnswers(CheckAnswersRequest{QuestionID: q.ID, AnswerIDs: []string{q.Answers[1].ID}})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)

	_, err = svc.CheckAnswers(CheckAnswersRequest{QuestionID: "missing"})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestQuestionService_CheckAIAnswer(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)
	q := f.addAIQuestion(t)
	f.scorer.scores["typed pipes"] = 2

	res, err := svc.CheckAIAnswer(context.Background(), CheckAIAnswerRequest{QuestionID: q.ID, Text: "typed pipes"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 1, f.scorer.scoreCalls)
}

func TestQuestionService_UpdateAIQuestionKeepsAuthor(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)

	q, err := svc.CreateAIQuestion("author", AIQuestionRequest{Description: "a", TopicID: f.topic.ID})
	require.NoError(t, err)

	updated, err := svc.UpdateAIQuestion(q.ID, AIQuestionRequest{Description: "b", Explanation: "c", TopicID: f.topic.ID})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Description)
	assert.Equal(t, "c", updated.Explanation)
	assert.Equal(t, "author", updated.AuthorID)
}

func TestQuestionService_PictureRoundTrip(t *testing.T) {
	f := setupQuizFixture(t)
	svc := newQuestionService(t, f)
	ctx := context.Background()

	q, err := svc.CreateAIQuestion("author", AIQuestionRequest{Description: "draw it", TopicID: f.topic.ID})
	require.NoError(t, err)

	_, err = svc.UploadPicture(ctx, "intruder", q.ID, "pic.png", strings.NewReader("png"), 3, "image/png")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, _, err = svc.OpenPicture(ctx, q.ID)
	assert.ErrorIs(t, err, util.ErrPictureNotFound)

	up, err := svc.UploadPicture(ctx, "author", q.ID, "../../pic.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/author/"+q.ID+"/pic.png", up.Key)

	body, name, err := svc.OpenPicture(ctx, q.ID)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "pic.png", name)

	_, err = svc.UploadPicture(ctx, "author", "missing", "pic.png", strings.NewReader("png"), 3, "image/png")
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	stored, err := f.svc.AIQuestionRepo.FindByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, up.Key, stored.Picture)
}
