package latex

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// joinRaw 拼接所有片段的原始内容
func joinRaw(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// TestSplit_DisplayBracket 测试 \[...\] 块级公式
func TestSplit_DisplayBracket(t *testing.T) {
	segs := Split(`\[ x^2 \]`)
	require.Len(t, segs, 1)
	assert.Equal(t, KindMath, segs[0].Kind)
	assert.Equal(t, "x^2", segs[0].Content)
	assert.True(t, segs[0].DisplayMode)
	assert.Equal(t, DisplayBracket, segs[0].Delim)
}

// TestSplit_DoubleDollarBeforeInline 测试 $$ 不会被拆成两个空的行内公式
func TestSplit_DoubleDollarBeforeInline(t *testing.T) {
	segs := Split("$$a+b$$ and $c$")
	require.Len(t, segs, 3)

	assert.Equal(t, KindMath, segs[0].Kind)
	assert.Equal(t, "a+b", segs[0].Content)
	assert.True(t, segs[0].DisplayMode)

	assert.Equal(t, KindText, segs[1].Kind)
	assert.Equal(t, " and ", segs[1].Content)

	assert.Equal(t, KindMath, segs[2].Kind)
	assert.Equal(t, "c", segs[2].Content)
	assert.False(t, segs[2].DisplayMode)
}

// TestSplit_Unterminated 测试未闭合的定界符按文本处理
func TestSplit_Unterminated(t *testing.T) {
	tests := []string{
		"$unterminated",
		`\[ x`,
		`\( y`,
		"$$ z",
		"$$",
		"$",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			segs := Split(input)
			require.Len(t, segs, 1)
			assert.Equal(t, KindText, segs[0].Kind)
			assert.Equal(t, input, segs[0].Content)
		})
	}
}

// TestSplit_Cases 测试各种混合输入
func TestSplit_Cases(t *testing.T) {
	type want struct {
		kind    SegmentKind
		content string
		display bool
	}

	tests := []struct {
		name  string
		input string
		want  []want
	}{
		{
			name:  "plain text",
			input: "no math here",
			want:  []want{{KindText, "no math here", false}},
		},
		{
			name:  "inline paren",
			input: `see \(a+b\) here`,
			want: []want{
				{KindText, "see ", false},
				{KindMath, "a+b", false},
				{KindText, " here", false},
			},
		},
		{
			name:  "empty display dollar",
			input: "$$$$",
			want:  []want{{KindMath, "", true}},
		},
		{
			name:  "whitespace-only inline dollar",
			input: "a $ $ b",
			want: []want{
				{KindText, "a ", false},
				{KindMath, "", false},
				{KindText, " b", false},
			},
		},
		{
			name:  "shortest inline match",
			input: "$a$ and $b$",
			want: []want{
				{KindMath, "a", false},
				{KindText, " and ", false},
				{KindMath, "b", false},
			},
		},
		{
			name:  "unterminated display falls back to inline",
			input: "$$a$",
			want: []want{
				{KindText, "$", false},
				{KindMath, "a", false},
			},
		},
		{
			name:  "inline dollar does not cross newline",
			input: "$a\nb$",
			want:  []want{{KindText, "$a\nb$", false}},
		},
		{
			name:  "display dollar may cross newline",
			input: "$$\na,b\n$$",
			want:  []want{{KindMath, "a,b", true}},
		},
		{
			name:  "all four delimiters",
			input: `\[A\]$$B$$\(C\)$D$`,
			want: []want{
				{KindMath, "A", true},
				{KindMath, "B", true},
				{KindMath, "C", false},
				{KindMath, "D", false},
			},
		},
		{
			name:  "unicode text",
			input: "α ≥ $β$",
			want: []want{
				{KindText, "α ≥ ", false},
				{KindMath, "β", false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Split(tt.input)
			require.Len(t, segs, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.kind, segs[i].Kind, "segment %d kind", i)
				assert.Equal(t, w.content, segs[i].Content, "segment %d content", i)
				assert.Equal(t, w.display, segs[i].DisplayMode, "segment %d display", i)
			}
			assert.Equal(t, tt.input, joinRaw(segs))
		})
	}
}

// TestSplit_RoundTrip 测试片段拼接后还原原文，且边界不重叠
func TestSplit_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"$$a+b$$ and $c$",
		`\[x\] \(y\) $z$ $$w$$`,
		"$$$ $$$",
		"$a$$b$",
		`\\[2pt] \[ \] $`,
		"中文 $x_1$，然后 \\(y\\)",
		"$\n$ $$ $ $",
	}

	for _, input := range inputs {
		segs := Split(input)
		assert.Equal(t, input, joinRaw(segs), "input %q", input)

		pos := 0
		for _, s := range segs {
			assert.Equal(t, pos, s.Start, "input %q", input)
			assert.Equal(t, input[s.Start:s.End], s.Raw)
			pos = s.End
		}
		assert.Equal(t, len(input), pos)
	}
}

// TestSegments_Restartable 测试序列可重复遍历并支持提前终止
func TestSegments_Restartable(t *testing.T) {
	seq := NewSegmenter().Segments("a $b$ c $d$")

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 4, count())
	assert.Equal(t, 4, count())

	var first Segment
	for s := range seq {
		first = s
		break
	}
	assert.Equal(t, "a ", first.Content)
}

// TestNewSegmenter_CustomDelimiters 测试自定义定界符
func TestNewSegmenter_CustomDelimiters(t *testing.T) {
	s := NewSegmenter(InlineParen)
	segs := s.Split(`$a$ \(b\)`)
	require.Len(t, segs, 2)
	assert.Equal(t, KindText, segs[0].Kind)
	assert.Equal(t, "$a$ ", segs[0].Content)
	assert.Equal(t, "b", segs[1].Content)
	assert.Equal(t, []Delimiter{InlineParen}, s.Delimiters())
}

// TestSegment_Body 测试公式原始内容
func TestSegment_Body(t *testing.T) {
	segs := Split(`\[ x \]`)
	require.Len(t, segs, 1)
	assert.Equal(t, " x ", segs[0].Body())
	assert.Equal(t, "x", segs[0].Content)
}

// TestSplit_LongUnterminated 测试大量未闭合的开始标记仍在线性时间内完成
func TestSplit_LongUnterminated(t *testing.T) {
	const size = 256 * 1024
	inputs := map[string]string{
		"display bracket": strings.Repeat(`\[`, size/2),
		"inline paren":    strings.Repeat(`\(`, size/2),
		"mixed":           strings.Repeat(`\[\($`, size/5),
		"dollar newline":  "$" + strings.Repeat("a\n$", size/3),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			segs := Split(input)
			elapsed := time.Since(start)

			assert.Equal(t, input, joinRaw(segs))
			assert.Less(t, elapsed, time.Second)
		})
	}
}

// TestSplit_CustomDelimiterNoNewline 测试禁止换行的定界符不会跨过换行匹配
func TestSplit_CustomDelimiterNoNewline(t *testing.T) {
	paren := Delimiter{Name: "paren", Open: "((", Close: "))"}
	s := NewSegmenter(paren)

	segs := s.Split("((a\n)) ((b))")
	require.Len(t, segs, 2)
	assert.Equal(t, KindText, segs[0].Kind)
	assert.Equal(t, "((a\n)) ", segs[0].Raw)
	assert.Equal(t, "b", segs[1].Content)

	segs = s.Split(strings.Repeat("((", 1000) + "\n))")
	assert.Len(t, segs, 1)
	assert.Equal(t, KindText, segs[0].Kind)
}

// TestSegmentKind_String 测试类型名称
func TestSegmentKind_String(t *testing.T) {
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "math", KindMath.String())
	assert.Equal(t, "unknown", SegmentKind(9).String())

	b, err := KindMath.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "math", string(b))
}
