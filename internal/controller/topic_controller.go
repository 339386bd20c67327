package controller

import (
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TopicController struct {
	TopicService *service.TopicService
}

func NewTopicController(topicService *service.TopicService) *TopicController {
	return &TopicController{TopicService: topicService}
}

type ChapterRequest struct {
	Name string `json:"name" binding:"required"`
}

type TopicRequest struct {
	ChapterID string `json:"chapter_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// ListChapters godoc
// @Summary 章节列表
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Chapter}
// @Router /api/chapters [get]
func (c *TopicController) ListChapters(ctx *gin.Context) {
	chapters, err := c.TopicService.ListChapters()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, chapters)
}

// CreateChapter godoc
// @Summary 创建章节
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChapterRequest true "章节"
// @Success 201 {object} util.Response{data=model.Chapter}
// @Router /api/chapters [post]
func (c *TopicController) CreateChapter(ctx *gin.Context) {
	var req ChapterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chapter, err := c.TopicService.CreateChapter(req.Name)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, chapter)
}

// RenameChapter godoc
// @Summary 重命名章节
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "章节 ID"
// @Param body body ChapterRequest true "章节"
// @Success 200 {object} util.Response{data=model.Chapter}
// @Failure 404 {object} util.Response
// @Router /api/chapters/{id} [put]
func (c *TopicController) RenameChapter(ctx *gin.Context) {
	var req ChapterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chapter, err := c.TopicService.RenameChapter(ctx.Param("id"), req.Name)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, chapter)
}

// DeleteChapter godoc
// @Summary 删除章节
// @Description 章节下仍有主题时返回 409
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "章节 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/chapters/{id} [delete]
func (c *TopicController) DeleteChapter(ctx *gin.Context) {
	if err := c.TopicService.DeleteChapter(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Chapter deleted"})
}

// ListTopics godoc
// @Summary 主题列表
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param chapter_id query string false "章节 ID"
// @Success 200 {object} util.Response{data=[]model.Topic}
// @Router /api/topics [get]
func (c *TopicController) ListTopics(ctx *gin.Context) {
	topics, err := c.TopicService.ListTopics(ctx.Query("chapter_id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// CreateTopic godoc
// @Summary 创建主题
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body TopicRequest true "主题"
// @Success 201 {object} util.Response{data=model.Topic}
// @Failure 404 {object} util.Response "章节不存在"
// @Router /api/topics [post]
func (c *TopicController) CreateTopic(ctx *gin.Context) {
	var req TopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	topic, err := c.TopicService.CreateTopic(req.ChapterID, req.Name)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, topic)
}

// DeleteTopic godoc
// @Summary 删除主题
// @Description 主题下仍有题目时返回 409
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "主题 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/topics/{id} [delete]
func (c *TopicController) DeleteTopic(ctx *gin.Context) {
	if err := c.TopicService.DeleteTopic(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Topic deleted"})
}
