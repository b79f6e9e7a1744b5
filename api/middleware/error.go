package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/api/model"
	"github.com/fyerfyer/tex-preview/internal/models"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// 错误类型
const (
	ErrorTypeValidation = "VALIDATION_ERROR"
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"
	ErrorTypeTooLarge   = "TOO_LARGE_ERROR"
	ErrorTypeInternal   = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Type    string // 错误类型
	Message string // 返回给客户端的消息
	Details string // 详细信息，只写入日志
	Code    int    // HTTP状态码
}

// Error 实现error接口
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 创建输入验证错误
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewTooLargeError 创建请求内容过大错误
func NewTooLargeError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeTooLarge,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusRequestEntityTooLarge,
	}
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// FromError 把服务层错误转换为AppError
func FromError(err error) AppError {
	var appErr AppError
	var appErrPtr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &appErrPtr):
		return *appErrPtr
	case errors.Is(err, models.ErrDraftNotFound):
		return NewNotFoundError("draft not found")
	case errors.Is(err, models.ErrEmptySource):
		return NewValidationError("source cannot be empty")
	case errors.Is(err, services.ErrSourceTooLarge):
		return NewTooLargeError("source too large", err.Error())
	default:
		return NewInternalError("internal server error", err.Error())
	}
}

// ErrorHandler 统一错误处理中间件
// 恢复panic，并把处理器通过 c.Error 记录的错误写成统一响应
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					FieldError:   r,
					"stack":      string(debug.Stack()),
					FieldPath:    c.Request.URL.Path,
					FieldTraceID: GetTraceID(c),
				}).Error("Panic recovered in API request")

				resp := model.NewErrorResponse(http.StatusInternalServerError, "An unexpected error occurred")
				if gin.Mode() == gin.DebugMode {
					resp.Message = fmt.Sprintf("Panic: %v", r)
				}
				resp.TraceID = GetTraceID(c)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := FromError(c.Errors.Last().Err)
		entry := log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			FieldTraceID: GetTraceID(c),
			FieldPath:    c.Request.URL.Path,
		})
		if appErr.Details != "" {
			entry = entry.WithField("details", appErr.Details)
		}
		if appErr.Code >= http.StatusInternalServerError {
			entry.Error(appErr.Message)
		} else {
			entry.Warn(appErr.Message)
		}

		resp := model.NewErrorResponse(appErr.Code, appErr.Message)
		resp.TraceID = GetTraceID(c)
		c.AbortWithStatusJSON(appErr.Code, resp)
	}
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}
