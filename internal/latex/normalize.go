package latex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize 将非ASCII字符替换为ASCII形式的LaTeX命令或字母
//
// 纯ASCII输入原样返回，不分配内存。其余字符逐个处理：
//  1. 查 NormalizationMap，命中则输出对应命令
//  2. 各种逗号变体统一为 ','
//  3. 组合附加符号直接丢弃
//  4. 其余字符做规范分解（NFD）并去掉附加符号后递归处理，
//     例如 é -> e，ά -> α -> \alpha
//
// 无法分解的字符保留原样。Normalize 是幂等的。
func Normalize(s string) string {
	if isASCII(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	w := &commandWriter{b: &b}
	for _, r := range s {
		w.writeRune(r)
	}
	return b.String()
}

// commandWriter 输出替换结果，并在控制词与后续字母之间补空格
type commandWriter struct {
	b          *strings.Builder
	needsSpace bool // 上一个输出是以字母结尾的控制词，如 \alpha
}

func (w *commandWriter) writeRune(r rune) {
	if r < utf8.RuneSelf {
		w.literal(r)
		return
	}
	if rep, ok := NormalizationMap[r]; ok {
		w.command(rep)
		return
	}
	if commaVariants[r] {
		w.literal(',')
		return
	}
	if unicode.Is(unicode.Mn, r) {
		return
	}

	base := stripMarks(r)
	if base == string(r) {
		w.literal(r)
		return
	}
	for _, c := range base {
		w.writeRune(c)
	}
}

func (w *commandWriter) literal(r rune) {
	if w.needsSpace && isLetter(r) {
		w.b.WriteByte(' ')
	}
	w.needsSpace = false
	w.b.WriteRune(r)
}

func (w *commandWriter) command(rep string) {
	if rep == "" {
		return
	}
	first, _ := utf8.DecodeRuneInString(rep)
	if w.needsSpace && isLetter(first) {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(rep)
	w.needsSpace = endsWithControlWord(rep)
}

// stripMarks 对单个字符做NFD分解并去掉组合附加符号
// transform.Chain 带状态，不能跨goroutine共享，这里每次新建。
func stripMarks(r rune) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, string(r))
	if err != nil {
		return string(r)
	}
	return out
}

// endsWithControlWord 判断字符串是否以 \name 形式的控制词结尾
func endsWithControlWord(s string) bool {
	i := len(s)
	for i > 0 && isASCIILetter(s[i-1]) {
		i--
	}
	return i < len(s) && i > 0 && s[i-1] == '\\'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isLetter(r rune) bool {
	return r < utf8.RuneSelf && isASCIILetter(byte(r)) || r >= utf8.RuneSelf && unicode.IsLetter(r)
}
