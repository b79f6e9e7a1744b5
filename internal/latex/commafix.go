package latex

import "strings"

// EscapedComma 公式中逗号的转义写法
// 图形渲染器会把裸逗号当作坐标分隔符，导致公式错位。
const EscapedComma = `\text{,}`

// FixInlineCommas 将单 $ 行内公式中的逗号替换为 \text{,}
//
// 公式区间由默认分段器确定，所以 $$...$$、\[...\] 和 \(...\) 内的逗号
// 以及公式外的逗号都保持不变。已经转义的 \text{,} 不会被重复处理。
func FixInlineCommas(s string) string {
	if !strings.Contains(s, ",") || !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for seg := range defaultSegmenter.Segments(s) {
		if seg.Kind != KindMath || seg.Delim != InlineDollar {
			b.WriteString(seg.Raw)
			continue
		}
		b.WriteString(seg.Delim.Open)
		b.WriteString(escapeCommas(seg.Body()))
		b.WriteString(seg.Delim.Close)
	}
	return b.String()
}

// escapeCommas 替换所有未转义的逗号
func escapeCommas(body string) string {
	if !strings.Contains(body, ",") {
		return body
	}

	const prefix = `\text{`
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != ',' {
			b.WriteByte(body[i])
			continue
		}
		if strings.HasSuffix(body[:i], prefix) && strings.HasPrefix(body[i+1:], "}") {
			b.WriteByte(',')
			continue
		}
		b.WriteString(EscapedComma)
	}
	return b.String()
}
