package model

// PaginationRequest 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为20，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// SourceRequest 携带文档内容的请求，用于预览、分段和规范化
type SourceRequest struct {
	Source string `json:"source" binding:"texsource"`
}

// DraftRequest 创建或更新草稿
type DraftRequest struct {
	Title  string `json:"title" binding:"omitempty,max=255,texsource"`
	Source string `json:"source" binding:"required,texsource"`
}

// DraftURIRequest 路径中的草稿ID
type DraftURIRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// DraftListRequest 草稿列表请求
type DraftListRequest struct {
	PaginationRequest
	Backend string `form:"backend" binding:"omitempty,oneof=math diagram"`
}
