package render

import (
	"bytes"
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"regexp"
	"strings"
	"text/template"
	"time"
)

//go:embed assets/frame.html.tmpl
var frameTemplateText string

//go:embed assets/panzoom.js
var panZoomScript string

var (
	frameTemplate = template.Must(template.New("frame").Parse(frameTemplateText))

	iframeTemplate = htmltemplate.Must(htmltemplate.New("iframe").Parse(
		`<iframe class="diagram-frame" sandbox="allow-scripts" style="width:100%;height:{{.Height}}px;border:0" srcdoc="{{.Doc}}"></iframe>`))

	// 用户内容不能提前结束所在的script元素，也不能让解析器进入注释转义状态
	scriptBreakRe = regexp.MustCompile(`(?i)</script|<!--`)
)

// DiagramConfig 图形渲染配置
type DiagramConfig struct {
	EngineOrigin string        // TikZJax 资源所在的源
	FitTimeout   time.Duration // 自动适配的最长等待时间
	PollInterval time.Duration // 自动适配轮询间隔
	FitPadding   int           // 适配时保留的像素边距
	Height       int           // iframe 高度（像素）
	MinScale     float64
	MaxScale     float64
}

// DefaultDiagramConfig 默认图形渲染配置
func DefaultDiagramConfig() DiagramConfig {
	return DiagramConfig{
		EngineOrigin: "https://tikzjax.com",
		FitTimeout:   10 * time.Second,
		PollInterval: 100 * time.Millisecond,
		FitPadding:   16,
		Height:       480,
		MinScale:     0.05,
		MaxScale:     40,
	}
}

// DiagramRenderer 把整篇文档包装进沙箱iframe交给TikZJax渲染
type DiagramRenderer struct {
	cfg DiagramConfig
}

// NewDiagramRenderer 创建图形渲染器，零值字段使用默认配置
func NewDiagramRenderer(cfg DiagramConfig) *DiagramRenderer {
	def := DefaultDiagramConfig()
	if cfg.EngineOrigin == "" {
		cfg.EngineOrigin = def.EngineOrigin
	}
	cfg.EngineOrigin = strings.TrimRight(cfg.EngineOrigin, "/")
	if cfg.FitTimeout <= 0 {
		cfg.FitTimeout = def.FitTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.FitPadding < 0 {
		cfg.FitPadding = def.FitPadding
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale <= cfg.MinScale {
		cfg.MaxScale = def.MaxScale
	}
	return &DiagramRenderer{cfg: cfg}
}

// Config 返回生效的配置
func (r *DiagramRenderer) Config() DiagramConfig {
	return r.cfg
}

// Document 生成iframe内部的完整HTML文档
func (r *DiagramRenderer) Document(src string) (string, error) {
	data := struct {
		Origin       string
		Source       string
		PollInterval int64
		Timeout      int64
		Padding      int
		MinScale     float64
		MaxScale     float64
		PanZoom      string
	}{
		Origin:       r.cfg.EngineOrigin,
		Source:       EscapeScriptBody(src),
		PollInterval: r.cfg.PollInterval.Milliseconds(),
		Timeout:      r.cfg.FitTimeout.Milliseconds(),
		Padding:      r.cfg.FitPadding,
		MinScale:     r.cfg.MinScale,
		MaxScale:     r.cfg.MaxScale,
		PanZoom:      panZoomScript,
	}

	var buf bytes.Buffer
	if err := frameTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build diagram document: %w", err)
	}
	return buf.String(), nil
}

// Frame 生成沙箱iframe元素，src 应为已规范化的文档
func (r *DiagramRenderer) Frame(src string) (string, error) {
	doc, err := r.Document(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = iframeTemplate.Execute(&buf, struct {
		Height int
		Doc    string
	}{Height: r.cfg.Height, Doc: doc})
	if err != nil {
		return "", fmt.Errorf("failed to build diagram frame: %w", err)
	}
	return buf.String(), nil
}

// EscapeScriptBody 把 </script 改写为 <\/script，<!-- 改写为 <\!--，
// 避免提前闭合script元素或吞掉后面的脚本
func EscapeScriptBody(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return scriptBreakRe.ReplaceAllStringFunc(s, func(m string) string {
		return m[:1] + `\` + m[1:]
	})
}
