package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/api/middleware"
	"github.com/fyerfyer/tex-preview/api/model"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// DraftHandler 处理草稿相关的API请求
type DraftHandler struct {
	draftService *services.DraftService
	logger       *logrus.Logger
}

// NewDraftHandler 创建草稿处理器
func NewDraftHandler(draftService *services.DraftService) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		logger:       middleware.GetLogger(),
	}
}

// CreateDraft 保存草稿
// POST /api/drafts
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req model.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request", err.Error()))
		return
	}

	draft, err := h.draftService.Save(c.Request.Context(), req.Title, req.Source)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.NewSuccessResponse(model.NewDraftInfo(draft, true)))
}

// GetDraft 获取草稿
// GET /api/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	var uri model.DraftURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid draft id", err.Error()))
		return
	}

	draft, err := h.draftService.Get(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewDraftInfo(draft, true)))
}

// UpdateDraft 更新草稿
// PUT /api/drafts/:id
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	var uri model.DraftURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid draft id", err.Error()))
		return
	}
	var req model.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid request", err.Error()))
		return
	}

	draft, err := h.draftService.Update(c.Request.Context(), uri.ID, req.Title, req.Source)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewDraftInfo(draft, true)))
}

// ListDrafts 分页列出草稿
// GET /api/drafts
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	var req model.DraftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid query", err.Error()))
		return
	}

	page, pageSize := req.GetPage(), req.GetPageSize()
	drafts, total, err := h.draftService.List(c.Request.Context(), page, pageSize, req.Backend)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	items := make([]model.DraftInfo, 0, len(drafts))
	for _, d := range drafts {
		items = append(items, model.NewDraftInfo(d, false))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DraftListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Drafts:   items,
	}))
}

// DeleteDraft 删除草稿
// DELETE /api/drafts/:id
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	var uri model.DraftURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid draft id", err.Error()))
		return
	}

	if err := h.draftService.Delete(c.Request.Context(), uri.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"draft_id":              uri.ID,
		middleware.FieldTraceID: middleware.GetTraceID(c),
	}).Info("Draft deleted")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DraftDeleteResponse{
		Success: true,
		ID:      uri.ID,
	}))
}

// PreviewDraft 渲染已保存的草稿
// GET /api/drafts/:id/preview
func (h *DraftHandler) PreviewDraft(c *gin.Context) {
	var uri model.DraftURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid draft id", err.Error()))
		return
	}

	result, cached, err := h.draftService.Preview(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewPreviewResponse(result, cached)))
}
