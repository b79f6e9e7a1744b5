package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/fyerfyer/tex-preview/internal/latex"
)

// MathRenderer 数学公式渲染器
// 返回的错误只影响当前片段，不会导致整篇文档失败。
type MathRenderer interface {
	RenderMath(expr string, displayMode bool) (string, error)
}

// MathRendererFunc 函数适配器
type MathRendererFunc func(expr string, displayMode bool) (string, error)

// RenderMath 实现 MathRenderer 接口
func (f MathRendererFunc) RenderMath(expr string, displayMode bool) (string, error) {
	return f(expr, displayMode)
}

// SegmentRenderer 需要原始片段（含定界符）的渲染器
// 调度器优先使用此接口。
type SegmentRenderer interface {
	RenderSegment(seg latex.Segment) (string, error)
}

var (
	// ErrUnbalancedBraces 花括号不匹配
	ErrUnbalancedBraces = errors.New("unbalanced braces")
	// ErrUnmatchedLeftRight \left 与 \right 不匹配
	ErrUnmatchedLeftRight = errors.New("unmatched \\left/\\right")
	// ErrUnmatchedEnvironment \begin 与 \end 不匹配
	ErrUnmatchedEnvironment = errors.New("unmatched environment")
)

// ExprError 单个公式的错误
type ExprError struct {
	Expr string
	Err  error
}

// Error 实现error接口
func (e *ExprError) Error() string {
	return fmt.Sprintf("invalid expression %q: %v", e.Expr, e.Err)
}

// Unwrap 返回底层错误
func (e *ExprError) Unwrap() error {
	return e.Err
}

// KatexRenderer 输出由浏览器端KaTeX自动渲染的占位元素
// 服务端只做结构校验，真正的排版在页面中完成。
type KatexRenderer struct {
	inlineClass  string
	displayClass string
}

// NewKatexRenderer 创建KaTeX渲染器
func NewKatexRenderer() *KatexRenderer {
	return &KatexRenderer{
		inlineClass:  "tex tex-inline",
		displayClass: "tex tex-display",
	}
}

// RenderMath 校验公式并输出占位元素
func (r *KatexRenderer) RenderMath(expr string, displayMode bool) (string, error) {
	return r.placeholder(expr, displayMode, "")
}

// RenderSegment 同 RenderMath，并在 data-raw 中保留原始定界符，供页面端出错时显示
func (r *KatexRenderer) RenderSegment(seg latex.Segment) (string, error) {
	return r.placeholder(seg.Content, seg.DisplayMode, seg.Raw)
}

func (r *KatexRenderer) placeholder(expr string, displayMode bool, raw string) (string, error) {
	if err := ValidateTeX(expr); err != nil {
		return "", &ExprError{Expr: expr, Err: err}
	}

	class := r.inlineClass
	if displayMode {
		class = r.displayClass
	}
	if raw == "" {
		return fmt.Sprintf(`<span class="%s" data-display="%t">%s</span>`,
			class, displayMode, html.EscapeString(expr)), nil
	}
	return fmt.Sprintf(`<span class="%s" data-display="%t" data-raw="%s">%s</span>`,
		class, displayMode, html.EscapeString(raw), html.EscapeString(expr)), nil
}

// ValidateTeX 检查公式中KaTeX一定会拒绝的结构错误
func ValidateTeX(expr string) error {
	depth := 0
	leftRight := 0
	var envs []string

	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			j := i + 1
			if j < len(expr) && !isASCIILetter(expr[j]) {
				// 转义字符，如 \{ \} \\ \$
				i = j
				continue
			}
			for j < len(expr) && isASCIILetter(expr[j]) {
				j++
			}

			switch expr[i+1 : j] {
			case "left":
				leftRight++
			case "right":
				if leftRight == 0 {
					return fmt.Errorf("%w: \\right without \\left", ErrUnmatchedLeftRight)
				}
				leftRight--
			case "begin":
				name, next, ok := readGroup(expr, j)
				if !ok {
					return fmt.Errorf("%w: malformed \\begin", ErrUnmatchedEnvironment)
				}
				envs = append(envs, name)
				j = next
			case "end":
				name, next, ok := readGroup(expr, j)
				if !ok {
					return fmt.Errorf("%w: malformed \\end", ErrUnmatchedEnvironment)
				}
				if len(envs) == 0 || envs[len(envs)-1] != name {
					return fmt.Errorf("%w: unexpected \\end{%s}", ErrUnmatchedEnvironment, name)
				}
				envs = envs[:len(envs)-1]
				j = next
			}
			i = j - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected '}'", ErrUnbalancedBraces)
			}
		}
	}

	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '{'", ErrUnbalancedBraces, depth)
	}
	if leftRight != 0 {
		return fmt.Errorf("%w: \\left without \\right", ErrUnmatchedLeftRight)
	}
	if len(envs) > 0 {
		return fmt.Errorf("%w: \\begin{%s} not closed", ErrUnmatchedEnvironment, envs[len(envs)-1])
	}
	return nil
}

// readGroup 读取从pos开始的 {name}，允许前导空格
func readGroup(s string, pos int) (string, int, bool) {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	if pos >= len(s) || s[pos] != '{' {
		return "", pos, false
	}
	end := strings.IndexByte(s[pos:], '}')
	if end < 0 {
		return "", pos, false
	}
	return strings.TrimSpace(s[pos+1 : pos+end]), pos + end + 1, true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
