package styles

import "strings"

const inlinePrefix = "style={{"

// Inline is a style object found in markup. Start and End are byte offsets
// of the object literal (inner braces included) within the scanned code.
type Inline struct {
	Start  int
	End    int
	Object Object
}

// ExtractInline finds every style={{ ... }} block in code whose object
// parses. Blocks that do not parse are skipped.
func ExtractInline(code string) []Inline {
	var out []Inline
	from := 0
	for {
		i := strings.Index(code[from:], inlinePrefix)
		if i < 0 {
			return out
		}
		start := from + i + len("style={")
		end := matchBrace(code, start)
		if end < 0 {
			return out
		}
		if obj, err := ParseObject(code[start:end]); err == nil {
			out = append(out, Inline{Start: start, End: end, Object: obj})
		}
		from = end
	}
}

// matchBrace returns the offset just past the brace matching code[open],
// ignoring braces inside quoted strings, or -1.
func matchBrace(code string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
