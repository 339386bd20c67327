package controller

import (
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// QuizQuery 组卷查询参数，n/k/m 必须显式给出
type QuizQuery struct {
	TopicID   string `form:"topic_id"`
	ChapterID string `form:"chapter_id"`
	N         *int   `form:"n" binding:"required"`
	K         *int   `form:"k" binding:"required"`
	M         *int   `form:"m" binding:"required"`
}

// GetQuiz godoc
// @Summary 组卷
// @Description 按主题或章节随机抽取选择题、开放题，并即时生成开放题
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param n query int true "选择题数量 (0-100)"
// @Param k query int true "开放题数量 (0-100)"
// @Param m query int true "生成题数量 (0-15)"
// @Param topic_id query string false "主题 ID"
// @Param chapter_id query string false "章节 ID"
// @Success 200 {object} util.Response{data=service.QuizResponse}
// @Failure 400 {object} util.Response "缺少数量参数或数量越界"
// @Failure 404 {object} util.Response "范围不合法、不存在或题目不足"
// @Failure 502 {object} util.Response "外部生成失败"
// @Router /api/quiz [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	var query QuizQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.AssembleQuiz(ctx.Request.Context(), service.QuizRequest{
		TopicID:   query.TopicID,
		ChapterID: query.ChapterID,
		Count:     *query.N,
		AICount:   *query.K,
		GenCount:  *query.M,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// CountQuestions godoc
// @Summary 范围内题目数量
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param topic_id query string false "主题 ID"
// @Param chapter_id query string false "章节 ID"
// @Success 200 {object} util.Response{data=service.QuestionCount}
// @Failure 404 {object} util.Response "范围不合法或不存在"
// @Router /api/quiz/count [get]
func (c *QuizController) CountQuestions(ctx *gin.Context) {
	count, err := c.QuizService.CountQuestions(ctx.Request.Context(), ctx.Query("topic_id"), ctx.Query("chapter_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, count)
}

// SubmitQuiz godoc
// @Summary 提交测验
// @Description 批改全部作答并返回一次性学习建议
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizSubmission true "作答"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 404 {object} util.Response "题目不存在"
// @Failure 502 {object} util.Response "外部评分失败"
// @Router /api/quiz/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	var sub service.QuizSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.QuizService.SubmitQuiz(ctx.Request.Context(), claims.UserID, sub)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListAttempts godoc
// @Summary 测验历史
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/quiz/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attempts, err := c.QuizService.ListAttempts(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}
