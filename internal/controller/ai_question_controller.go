package controller

import (
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AIQuestionController struct {
	QuestionService *service.QuestionService
}

func NewAIQuestionController(questionService *service.QuestionService) *AIQuestionController {
	return &AIQuestionController{QuestionService: questionService}
}

// CreateAIQuestion godoc
// @Summary 创建开放题
// @Tags 开放题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AIQuestionRequest true "开放题"
// @Success 201 {object} util.Response{data=model.AIQuestion}
// @Failure 404 {object} util.Response "主题不存在"
// @Router /api/ai-questions [post]
func (c *AIQuestionController) CreateAIQuestion(ctx *gin.Context) {
	var req service.AIQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.CreateAIQuestion(claims.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// ListAIQuestions godoc
// @Summary 开放题列表
// @Tags 开放题
// @Produce json
// @Security ApiKeyAuth
// @Param topic_id query string false "主题 ID"
// @Success 200 {object} util.Response{data=[]model.AIQuestion}
// @Router /api/ai-questions [get]
func (c *AIQuestionController) ListAIQuestions(ctx *gin.Context) {
	questions, err := c.QuestionService.ListAIQuestions(ctx.Query("topic_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// UpdateAIQuestion godoc
// @Summary 覆盖开放题
// @Tags 开放题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "开放题 ID"
// @Param body body service.AIQuestionRequest true "开放题"
// @Success 200 {object} util.Response{data=model.AIQuestion}
// @Failure 404 {object} util.Response
// @Router /api/ai-questions/{id} [put]
func (c *AIQuestionController) UpdateAIQuestion(ctx *gin.Context) {
	var req service.AIQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.UpdateAIQuestion(ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteAIQuestion godoc
// @Summary 删除开放题
// @Tags 开放题
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "开放题 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/ai-questions/{id} [delete]
func (c *AIQuestionController) DeleteAIQuestion(ctx *gin.Context) {
	if err := c.QuestionService.DeleteAIQuestion(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Question deleted"})
}

// CheckAIAnswer godoc
// @Summary 开放题评分
// @Description 调用外部评分接口，失败时返回 0 分与 check_error 说明
// @Tags 开放题
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CheckAIAnswerRequest true "作答内容"
// @Success 200 {object} util.Response{data=service.ScoreResult}
// @Failure 404 {object} util.Response
// @Router /api/ai-questions/check [post]
func (c *AIQuestionController) CheckAIAnswer(ctx *gin.Context) {
	var req service.CheckAIAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.QuestionService.CheckAIAnswer(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
