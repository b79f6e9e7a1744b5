package render

import "strings"

// DiagramMarker 图形块的起始标记
const DiagramMarker = `\begin{tikzpicture}`

// Backend 渲染后端类型
type Backend string

const (
	// BackendMath 按行分段后交给数学渲染器
	BackendMath Backend = "math"
	// BackendDiagram 整篇文档交给图形渲染器
	BackendDiagram Backend = "diagram"
)

// SelectBackend 根据原始文档（未规范化）选择渲染后端
// 文档任意位置出现 DiagramMarker 都走图形渲染。
func SelectBackend(doc string) Backend {
	if strings.Contains(doc, DiagramMarker) {
		return BackendDiagram
	}
	return BackendMath
}
