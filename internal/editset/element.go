package editset

import (
	"strings"
)

// EscapeFunc escapes the character data of an element.
type EscapeFunc func(string) string

var (
	textEscaper       = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	textQuoteEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	blockIndentPrefix = " "
)

// EscapeText escapes the three characters that are never allowed raw in
// character data.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeTextWithQuotes additionally escapes double quotes as &quot;, which
// the trainer tooling expects even though XML does not require it.
func EscapeTextWithQuotes(s string) string {
	return textQuoteEscaper.Replace(s)
}

// element is the minimal tree needed to serialize a WPEdit. A nil text
// renders the same as an empty one.
type element struct {
	name     string
	text     *string
	children []*element
}

func newElement(name string) *element {
	return &element{name: name}
}

func (e *element) add(child *element) *element {
	e.children = append(e.children, child)
	return child
}

func (e *element) leaf(name, text string) {
	e.add(&element{name: name, text: &text})
}

func (e *element) optionalLeaf(name string, text *string) {
	e.add(&element{name: name, text: text})
}

// write serializes e with one space of indentation per nesting level.
// Elements with children never carry text of their own, and empty elements
// are written with an explicit closing tag.
func (e *element) write(sb *strings.Builder, escape EscapeFunc, level int) {
	sb.WriteString("<")
	sb.WriteString(e.name)
	sb.WriteString(">")

	if e.text != nil {
		sb.WriteString(escape(*e.text))
	}

	if len(e.children) > 0 {
		childIndent := "\n" + strings.Repeat(" ", level+1)
		for _, child := range e.children {
			sb.WriteString(childIndent)
			child.write(sb, escape, level+1)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", level))
	}

	sb.WriteString("</")
	sb.WriteString(e.name)
	sb.WriteString(">")
}

// indentBlock prefixes every line that starts with a tag with one extra
// space. Lines are split on every boundary the legacy tooling recognised and
// rejoined with "\n".
func indentBlock(s string) string {
	lines := splitLines(s)
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "<") {
			lines[i] = blockIndentPrefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\r':
			lines = append(lines, string(runes[start:i]))
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			start = i + 1
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, string(runes[start:i]))
			start = i + 1
		}
	}
	if start < len(runes) {
		lines = append(lines, string(runes[start:]))
	}
	return lines
}
