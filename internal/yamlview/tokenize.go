// Package yamlview classifies YAML text line by line for display, validates
// syntax, and diffs buffers. It is not a parser: block scalars and flow
// collections spanning lines may be misclassified.
package yamlview

import (
	"regexp"
	"strings"
)

// Kind is the display class of one line.
type Kind int

const (
	Empty Kind = iota
	Comment
	KeyValue
	ListItem
	Text
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Comment:
		return "comment"
	case KeyValue:
		return "key"
	case ListItem:
		return "list"
	default:
		return "text"
	}
}

// Line is the tokenized form of one source line.
type Line struct {
	Number  int // 1-based
	Kind    Kind
	Indent  int
	Key     string // KeyValue, or ListItem of the form "- key: value"
	Value   string
	Comment string // trailing comment including '#'
	Raw     string
}

var keyPattern = regexp.MustCompile(`^("[^"]*"|'[^']*'|[^\s#'"\-][^:#]*?|-[^\s:#][^:#]*?)\s*:(\s+|$)`)

// Tokenize splits text into lines and classifies each one.
func Tokenize(text string) []Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	rows := strings.Split(text, "\n")
	lines := make([]Line, 0, len(rows))
	for i, raw := range rows {
		lines = append(lines, tokenizeLine(i+1, raw))
	}
	return lines
}

func tokenizeLine(number int, raw string) Line {
	line := Line{Number: number, Raw: raw}
	body := strings.TrimLeft(raw, " \t")
	line.Indent = len(raw) - len(body)

	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		line.Kind = Empty
		return line
	case strings.HasPrefix(trimmed, "#"):
		line.Kind = Comment
		line.Comment = trimmed
		return line
	}

	content, comment := splitComment(body)
	line.Comment = comment

	if content == "-" || strings.HasPrefix(content, "- ") {
		line.Kind = ListItem
		rest := strings.TrimSpace(strings.TrimPrefix(content, "-"))
		if k, v, ok := splitKey(rest); ok {
			line.Key, line.Value = k, v
		} else {
			line.Value = rest
		}
		return line
	}

	if k, v, ok := splitKey(content); ok {
		line.Kind = KeyValue
		line.Key, line.Value = k, v
		return line
	}

	line.Kind = Text
	line.Value = strings.TrimSpace(content)
	return line
}

func splitKey(s string) (key, value string, ok bool) {
	loc := keyPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", "", false
	}
	key = strings.TrimSpace(s[loc[2]:loc[3]])
	value = strings.TrimSpace(s[loc[1]:])
	return key, value, true
}

// splitComment separates a trailing " #" comment, ignoring '#' inside quotes.
func splitComment(s string) (content, comment string) {
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t'):
			return strings.TrimRight(s[:i], " \t"), s[i:]
		}
	}
	return strings.TrimRight(s, " \t"), ""
}
