package controller

import (
	"io"
	"mime"
	"net/http"
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	QuestionService *service.QuestionService
}

func NewFileController(questionService *service.QuestionService) *FileController {
	return &FileController{QuestionService: questionService}
}

// UploadQuestionPicture godoc
// @Summary 上传题目图片
// @Description 仅题目作者可上传，选择题与开放题通用
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题目 ID"
// @Param file formData file true "图片"
// @Success 200 {object} util.Response{data=service.PictureUpload}
// @Failure 403 {object} util.Response "不是题目作者"
// @Failure 404 {object} util.Response
// @Router /api/files/questions/{id}/upload [post]
func (c *FileController) UploadQuestionPicture(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > util.MaxPictureSize {
		util.BadRequest(ctx, "file is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	claims := util.GetUserFromContext(ctx)
	res, err := c.QuestionService.UploadPicture(ctx.Request.Context(), claims.UserID, ctx.Param("id"), file.Filename, src, file.Size, mimeType)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// GetQuestionPicture godoc
// @Summary 下载题目图片
// @Tags 文件
// @Produce application/octet-stream
// @Security ApiKeyAuth
// @Param id path string true "题目 ID"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/files/questions/{id}/picture [get]
func (c *FileController) GetQuestionPicture(ctx *gin.Context) {
	body, name, err := c.QuestionService.OpenPicture(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	defer body.Close()

	ctx.DataFromReader(http.StatusOK, -1, util.MimeOctetStream, body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}
