package intent

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// codeLanguages are the fence labels treated as runnable code.
var codeLanguages = []string{"python", "py", "starlark"}

// ExtractCode returns the first fenced code block labelled as runnable
// code, trimmed. It returns false when the text holds no such block.
func ExtractCode(s string) (string, bool) {
	return ExtractFenced(s, codeLanguages...)
}

// ExtractFenced returns the body of the first fenced code block whose
// info string names one of langs (case-insensitive), trimmed of
// surrounding whitespace. Well-formed Markdown fences are found through
// the goldmark AST. Failing that, the first "```<lang>" marker anywhere
// in the text opens the block, even mid-line or indented, and the next
// "```" (or the end of the text) closes it. An empty block counts as
// absent.
func ExtractFenced(s string, langs ...string) (string, bool) {
	if body, ok := markdownFenced(s, langs); ok {
		return body, true
	}
	return scanFenced(s, langs)
}

func markdownFenced(s string, langs []string) (string, bool) {
	src := []byte(s)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var body strings.Builder
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !matchesLanguage(string(block.Language(src)), langs) {
			return ast.WalkSkipChildren, nil
		}
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		found = true
		return ast.WalkStop, nil
	})

	out := strings.TrimSpace(body.String())
	if !found || out == "" {
		return "", false
	}
	return out, true
}

const fence = "```"

// scanFenced locates the earliest fence marker for any of langs. The
// label must end at a non-word byte so "```py" does not match
// "```python".
func scanFenced(s string, langs []string) (string, bool) {
	at, start := -1, 0
	for _, lang := range langs {
		if i := indexMarker(s, fence+lang); i >= 0 && (at < 0 || i < at) {
			at, start = i, i+len(fence)+len(lang)
		}
	}
	if at < 0 {
		return "", false
	}

	body := s[start:]
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	out := strings.TrimSpace(dedent(body))
	return out, out != ""
}

// indexMarker returns the offset of the first ASCII case-insensitive
// occurrence of marker in s that is not followed by a word byte, or -1.
func indexMarker(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if !strings.EqualFold(s[i:i+len(marker)], marker) {
			continue
		}
		if end := i + len(marker); end == len(s) || !isWordByte(s[end]) {
			return i
		}
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// dedent removes the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func matchesLanguage(lang string, langs []string) bool {
	for _, l := range langs {
		if strings.EqualFold(lang, l) {
			return true
		}
	}
	return false
}
