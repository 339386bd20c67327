package controller

import (
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestion godoc
// @Summary 创建选择题
// @Description 在同一事务中创建题目及其选项
// @Tags 题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateQuestionRequest true "题目与选项"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "主题不存在"
// @Router /api/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req service.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	q, err := c.QuestionService.CreateQuestion(claims.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// ListQuestions godoc
// @Summary 选择题列表
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param topic_id query string false "主题 ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	questions, err := c.QuestionService.ListQuestions(ctx.Query("topic_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// ListAnswers godoc
// @Summary 题目选项
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目 ID"
// @Success 200 {object} util.Response{data=[]model.Answer}
// @Router /api/questions/{id}/answers [get]
func (c *QuestionController) ListAnswers(ctx *gin.Context) {
	answers, err := c.QuestionService.ListAnswers(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, answers)
}

// UpdateQuestion godoc
// @Summary 更新选择题
// @Description 只更新请求中出现的字段
// @Tags 题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目 ID"
// @Param body body service.UpdateQuestionRequest true "需要更新的字段"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	var req service.UpdateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.UpdateQuestion(ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除选择题
// @Description 级联删除所有选项
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	if err := c.QuestionService.DeleteQuestion(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Question deleted"})
}

// CheckAnswers godoc
// @Summary 单题判分
// @Tags 题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CheckAnswersRequest true "所选选项"
// @Success 200 {object} util.Response{data=service.CheckResult}
// @Failure 404 {object} util.Response
// @Router /api/questions/check [post]
func (c *QuestionController) CheckAnswers(ctx *gin.Context) {
	var req service.CheckAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.QuestionService.CheckAnswers(req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// UpdateAnswer godoc
// @Summary 覆盖选项
// @Description 整体覆盖选项内容，未传字段会被置空
// @Tags 题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "选项 ID"
// @Param body body service.AnswerRequest true "选项"
// @Success 200 {object} util.Response{data=model.Answer}
// @Failure 404 {object} util.Response
// @Router /api/answers/{id} [put]
func (c *QuestionController) UpdateAnswer(ctx *gin.Context) {
	var req service.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.QuestionService.UpdateAnswer(ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// DeleteAnswer godoc
// @Summary 删除选项
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "选项 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/answers/{id} [delete]
func (c *QuestionController) DeleteAnswer(ctx *gin.Context) {
	if err := c.QuestionService.DeleteAnswer(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Answer deleted"})
}
