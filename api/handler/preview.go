package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/api/middleware"
	"github.com/fyerfyer/tex-preview/api/model"
	"github.com/fyerfyer/tex-preview/internal/render"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// PreviewHandler 处理预览相关的API请求
type PreviewHandler struct {
	previewService *services.PreviewService
	logger         *logrus.Logger
}

// NewPreviewHandler 创建预览处理器
func NewPreviewHandler(previewService *services.PreviewService) *PreviewHandler {
	return &PreviewHandler{
		previewService: previewService,
		logger:         middleware.GetLogger(),
	}
}

// Preview 渲染文档
// POST /api/preview
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req model.SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request", err.Error()))
		return
	}

	result, cached, err := h.previewService.Render(c.Request.Context(), req.Source)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewPreviewResponse(result, cached)))
}

// Segments 返回逐行分段结果
// POST /api/segments
func (h *PreviewHandler) Segments(c *gin.Context) {
	var req model.SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request", err.Error()))
		return
	}

	lines, err := h.previewService.Segments(req.Source)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.SegmentsResponse{
		Backend: render.SelectBackend(req.Source),
		Lines:   lines,
	}))
}

// Normalize 返回规范化后的文本
// POST /api/normalize
func (h *PreviewHandler) Normalize(c *gin.Context) {
	var req model.SourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request", err.Error()))
		return
	}

	result, err := h.previewService.Normalize(req.Source)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}
