package util

import (
	"errors"
	"net/http"
	"quiz_bank_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// HandleError 将业务错误映射为 HTTP 状态码
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuizParams):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidScope),
		errors.Is(err, ErrScopeNotFound),
		errors.Is(err, ErrNotEnoughQuestions),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrAnswerNotFound),
		errors.Is(err, ErrChapterNotFound),
		errors.Is(err, ErrTopicNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrPictureNotFound),
		errors.Is(err, ErrReportNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailRegistered),
		errors.Is(err, ErrChapterNotEmpty),
		errors.Is(err, ErrTopicNotEmpty):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrScorerUnavailable):
		logger.Log.Warn("External scorer failed", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, ErrReportFontRequired):
		logger.Log.Error("Report font not configured", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error())
	default:
		LogInternalError(c, err)
	}
}
