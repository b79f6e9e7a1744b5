package latex

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// SegmentKind 片段类型
type SegmentKind int

const (
	// KindText 普通文本
	KindText SegmentKind = iota
	// KindMath 数学公式
	KindMath
)

// String 返回片段类型名称
func (k SegmentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMath:
		return "math"
	default:
		return "unknown"
	}
}

// MarshalText 以名称形式输出到JSON
func (k SegmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Delimiter 数学定界符
type Delimiter struct {
	Name         string // 定界符名称
	Open         string // 开始标记
	Close        string // 结束标记
	DisplayMode  bool   // 是否为块级公式
	AllowNewline bool   // 内容是否可以跨行
	AllowEmpty   bool   // 内容是否可以为空
}

var (
	// DisplayBracket \[ ... \]
	DisplayBracket = Delimiter{Name: "display_bracket", Open: `\[`, Close: `\]`, DisplayMode: true, AllowNewline: true, AllowEmpty: true}
	// DisplayDollar $$ ... $$
	DisplayDollar = Delimiter{Name: "display_dollar", Open: "$$", Close: "$$", DisplayMode: true, AllowNewline: true, AllowEmpty: true}
	// InlineParen \( ... \)
	InlineParen = Delimiter{Name: "inline_paren", Open: `\(`, Close: `\)`, AllowEmpty: true}
	// InlineDollar $ ... $，不能跨行，不能为空
	InlineDollar = Delimiter{Name: "inline_dollar", Open: "$", Close: "$"}
)

// DefaultDelimiters 按优先级排列的定界符
// 两字符标记必须排在共享前缀的单字符标记之前，否则 $$ 会被拆成两个空的 $...$
var DefaultDelimiters = []Delimiter{DisplayBracket, DisplayDollar, InlineParen, InlineDollar}

// Segment 文档中的一个连续片段
type Segment struct {
	Kind        SegmentKind `json:"kind"`
	Content     string      `json:"content"`      // 文本原文或去掉定界符后的公式
	DisplayMode bool        `json:"display_mode"` // 仅对公式有效
	Start       int         `json:"start"`        // 起始字节偏移
	End         int         `json:"end"`          // 结束字节偏移（不含）
	Raw         string      `json:"raw"`          // 原始片段，包含定界符
	Delim       Delimiter   `json:"-"`            // 匹配到的定界符，文本片段为零值
}

// IsMath 是否为公式片段
func (s Segment) IsMath() bool {
	return s.Kind == KindMath
}

// Body 返回公式定界符之间未经修剪的内容
func (s Segment) Body() string {
	if s.Kind != KindMath {
		return s.Raw
	}
	return s.Raw[len(s.Delim.Open) : len(s.Raw)-len(s.Delim.Close)]
}

// Segmenter 单遍前向扫描的定界符分段器
// 每个位置按优先级依次尝试所有开始标记，第一个能闭合的获胜。
// Segmenter 创建后只读，可并发使用。
type Segmenter struct {
	delims []Delimiter
}

// NewSegmenter 创建分段器，未指定定界符时使用 DefaultDelimiters
func NewSegmenter(delims ...Delimiter) *Segmenter {
	if len(delims) == 0 {
		delims = DefaultDelimiters
	}
	return &Segmenter{delims: slices.Clone(delims)}
}

// Delimiters 返回分段器使用的定界符
func (s *Segmenter) Delimiters() []Delimiter {
	return slices.Clone(s.delims)
}

// Segments 返回覆盖整个输入的片段序列
// 序列是惰性的，每次遍历都从头重新扫描。
func (s *Segmenter) Segments(src string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		sc := s.newScan(src)
		textStart, pos := 0, 0
		for pos < len(src) {
			d, end, ok := sc.match(pos)
			if !ok {
				_, size := utf8.DecodeRuneInString(src[pos:])
				pos += size
				continue
			}
			if textStart < pos && !yield(textSegment(src, textStart, pos)) {
				return
			}
			if !yield(mathSegment(src, pos, end, d)) {
				return
			}
			pos = end
			textStart = end
		}
		if textStart < len(src) {
			yield(textSegment(src, textStart, len(src)))
		}
	}
}

// Split 将输入切分为片段列表
func (s *Segmenter) Split(src string) []Segment {
	return slices.Collect(s.Segments(src))
}

// indexCache 记录一次向后查找的结果
// 扫描位置只会前进：从 [from, at] 内任意位置开始查找，结果都是 at；
// at 为 -1 表示 from 之后不存在，之后的查找可以直接失败。
type indexCache struct {
	needle string
	any    bool // needle 中任一字符即可
	from   int
	at     int
}

// find 返回 start 及之后第一次出现的绝对偏移，不存在时返回 -1
func (c *indexCache) find(src string, start int) int {
	if c.from >= 0 && start >= c.from && (c.at < 0 || start <= c.at) {
		return c.at
	}
	c.from = start
	if c.any {
		c.at = strings.IndexAny(src[start:], c.needle)
	} else {
		c.at = strings.Index(src[start:], c.needle)
	}
	if c.at >= 0 {
		c.at += start
	}
	return c.at
}

// scan 一次遍历的状态，每个结束标记各自缓存查找结果，整体为线性时间
type scan struct {
	src     string
	delims  []Delimiter
	closers []indexCache
	newline indexCache
}

func (s *Segmenter) newScan(src string) *scan {
	sc := &scan{
		src:     src,
		delims:  s.delims,
		closers: make([]indexCache, len(s.delims)),
		newline: indexCache{needle: "\r\n", any: true, from: -1},
	}
	for i, d := range s.delims {
		sc.closers[i] = indexCache{needle: d.Close, from: -1}
	}
	return sc
}

// match 尝试在pos处匹配一个完整的公式，返回匹配的定界符和结束偏移
func (sc *scan) match(pos int) (Delimiter, int, bool) {
	rest := sc.src[pos:]
	for i, d := range sc.delims {
		if !strings.HasPrefix(rest, d.Open) {
			continue
		}
		bodyStart := pos + len(d.Open)
		closeAt := sc.closers[i].find(sc.src, bodyStart)
		if closeAt < 0 {
			continue
		}
		if closeAt == bodyStart && !d.AllowEmpty {
			continue
		}
		if !d.AllowNewline {
			if nl := sc.newline.find(sc.src, bodyStart); nl >= 0 && nl < closeAt {
				continue
			}
		}
		return d, closeAt + len(d.Close), true
	}
	return Delimiter{}, 0, false
}

func textSegment(src string, start, end int) Segment {
	return Segment{
		Kind:    KindText,
		Content: src[start:end],
		Start:   start,
		End:     end,
		Raw:     src[start:end],
	}
}

func mathSegment(src string, start, end int, d Delimiter) Segment {
	raw := src[start:end]
	return Segment{
		Kind:        KindMath,
		Content:     strings.TrimSpace(raw[len(d.Open) : len(raw)-len(d.Close)]),
		DisplayMode: d.DisplayMode,
		Start:       start,
		End:         end,
		Raw:         raw,
		Delim:       d,
	}
}

var defaultSegmenter = NewSegmenter()

// Split 使用默认定界符切分输入
func Split(src string) []Segment {
	return defaultSegmenter.Split(src)
}
