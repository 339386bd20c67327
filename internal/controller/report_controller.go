package controller

import (
	"net/http"
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// CreateReport godoc
// @Summary 生成测验报告
// @Tags 报告
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizResult true "批改结果"
// @Success 201 {object} util.Response{data=object}
// @Router /api/reports [post]
func (c *ReportController) CreateReport(ctx *gin.Context) {
	var result service.QuizResult
	if err := ctx.ShouldBindJSON(&result); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id, err := c.ReportService.Generate(ctx.Request.Context(), result)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": id})
}

// GetReport godoc
// @Summary 下载测验报告
// @Tags 报告
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param id path string true "报告 ID"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/reports/{id} [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	id := ctx.Param("id")
	f, err := c.ReportService.Open(id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.DataFromReader(http.StatusOK, info.Size(), util.MimePDF, f, map[string]string{
		"Content-Disposition": `attachment; filename="` + id + `.pdf"`,
	})
}

// DeleteReport godoc
// @Summary 删除测验报告
// @Tags 报告
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "报告 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reports/{id} [delete]
func (c *ReportController) DeleteReport(ctx *gin.Context) {
	if err := c.ReportService.Delete(ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Report deleted"})
}
