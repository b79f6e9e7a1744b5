package model

import (
	"time"

	"github.com/fyerfyer/tex-preview/internal/models"
	"github.com/fyerfyer/tex-preview/internal/render"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// PreviewResponse 预览响应，html 与 error 有且仅有一个非空
type PreviewResponse struct {
	HTML    *string        `json:"html"`
	Error   *string        `json:"error"`
	Backend render.Backend `json:"backend"`
	Cached  bool           `json:"cached"`
}

// NewPreviewResponse 由渲染结果构造预览响应
func NewPreviewResponse(result *render.RenderResult, cached bool) PreviewResponse {
	return PreviewResponse{
		HTML:    result.HTML,
		Error:   result.Error,
		Backend: result.Backend,
		Cached:  cached,
	}
}

// SegmentsResponse 分段响应
type SegmentsResponse struct {
	Backend render.Backend          `json:"backend"`
	Lines   []services.LineSegments `json:"lines"`
}

// NormalizeResponse 规范化响应
type NormalizeResponse = services.NormalizeResult

// DraftStatsInfo 草稿统计信息
type DraftStatsInfo = models.DraftStats

// DraftInfo 草稿信息
type DraftInfo struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Source    string         `json:"source,omitempty"`
	Backend   string         `json:"backend"`
	Stats     DraftStatsInfo `json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewDraftInfo 转换草稿模型，withSource 为false时不返回正文
func NewDraftInfo(d *models.Draft, withSource bool) DraftInfo {
	stats, _ := d.Stats()
	info := DraftInfo{
		ID:        d.ID,
		Title:     d.Title,
		Backend:   d.Backend,
		Stats:     stats,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if withSource {
		info.Source = d.Source
	}
	return info
}

// DraftListResponse 草稿列表响应
type DraftListResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Drafts   []DraftInfo `json:"drafts"`
}

// DraftDeleteResponse 草稿删除响应
type DraftDeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	// CacheItems 进程内缓存的条目数，其他缓存不返回
	CacheItems *int `json:"cache_items,omitempty"`
}
