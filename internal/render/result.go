package render

// RenderResult 一次渲染的结果，HTML 与 Error 有且仅有一个非空
type RenderResult struct {
	HTML    *string `json:"html"`
	Error   *string `json:"error"`
	Backend Backend `json:"backend"`
}

// Succeeded 创建成功结果
func Succeeded(backend Backend, html string) RenderResult {
	return RenderResult{HTML: &html, Backend: backend}
}

// Failed 创建文档级失败结果
func Failed(backend Backend, err error) RenderResult {
	msg := err.Error()
	return RenderResult{Error: &msg, Backend: backend}
}

// OK 是否渲染成功
func (r RenderResult) OK() bool {
	return r.HTML != nil && r.Error == nil
}

// HTMLString 返回HTML内容，失败时为空字符串
func (r RenderResult) HTMLString() string {
	if r.HTML == nil {
		return ""
	}
	return *r.HTML
}

// ErrorString 返回错误信息，成功时为空字符串
func (r RenderResult) ErrorString() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}
