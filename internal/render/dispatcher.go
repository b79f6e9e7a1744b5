package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/internal/latex"
)

// LineBreak 数学路径中各行之间的分隔
const LineBreak = "<br>"

// Dispatcher 渲染调度器
// 根据文档内容选择后端，数学路径按行分段渲染，图形路径整体交给iframe。
type Dispatcher struct {
	math      MathRenderer
	diagram   *DiagramRenderer
	segmenter *latex.Segmenter
	logger    *logrus.Logger
}

// DispatcherOption 调度器选项
type DispatcherOption func(*Dispatcher)

// WithMathRenderer 设置数学渲染器
func WithMathRenderer(r MathRenderer) DispatcherOption {
	return func(d *Dispatcher) {
		d.math = r
	}
}

// WithDiagramRenderer 设置图形渲染器
func WithDiagramRenderer(r *DiagramRenderer) DispatcherOption {
	return func(d *Dispatcher) {
		d.diagram = r
	}
}

// WithSegmenter 设置分段器
func WithSegmenter(s *latex.Segmenter) DispatcherOption {
	return func(d *Dispatcher) {
		d.segmenter = s
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher 创建渲染调度器
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		math:      NewKatexRenderer(),
		diagram:   NewDiagramRenderer(DefaultDiagramConfig()),
		segmenter: latex.NewSegmenter(),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render 渲染整篇文档
// 单个公式的错误以内联标记呈现，只有意外的panic才会变成文档级错误。
func (d *Dispatcher) Render(doc string) (result RenderResult) {
	backend := SelectBackend(doc)

	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"backend": backend,
				"panic":   r,
			}).Error("Render panicked")
			result = Failed(backend, fmt.Errorf("render failed: %v", r))
		}
	}()

	if backend == BackendDiagram {
		out, err := d.renderDiagram(doc)
		if err != nil {
			return Failed(backend, err)
		}
		return Succeeded(backend, out)
	}
	return Succeeded(backend, d.renderMath(doc))
}

func (d *Dispatcher) renderDiagram(doc string) (string, error) {
	src := latex.FixInlineCommas(latex.Normalize(doc))
	return d.diagram.Frame(src)
}

func (d *Dispatcher) renderMath(doc string) string {
	lines := strings.Split(doc, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = d.RenderLine(strings.TrimSuffix(line, "\r"))
	}
	return strings.Join(out, LineBreak)
}

// RenderLine 渲染单行：文本转义，公式交给数学渲染器
func (d *Dispatcher) RenderLine(line string) string {
	var sb strings.Builder
	for seg := range d.segmenter.Segments(line) {
		if !seg.IsMath() {
			sb.WriteString(html.EscapeString(seg.Raw))
			continue
		}

		rendered, err := d.renderSegment(seg)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"expr":  seg.Content,
				"error": err,
			}).Debug("Math segment failed to render")
			sb.WriteString(ErrorMarker(seg.Raw, err))
			continue
		}
		sb.WriteString(rendered)
	}
	return sb.String()
}

func (d *Dispatcher) renderSegment(seg latex.Segment) (string, error) {
	if sr, ok := d.math.(SegmentRenderer); ok {
		return sr.RenderSegment(seg)
	}
	return d.math.RenderMath(seg.Content, seg.DisplayMode)
}

// ErrorMarker 公式渲染失败时的内联标记，保留转义后的原始文本
func ErrorMarker(raw string, err error) string {
	return fmt.Sprintf(`<span class="math-error" title="%s">%s</span>`,
		html.EscapeString(err.Error()), html.EscapeString(raw))
}
