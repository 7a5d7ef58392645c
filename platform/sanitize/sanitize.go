// Package sanitize cleans free text that BDAs and the scheduling webhook
// submit before it is stored. Markup is dropped and entities are decoded;
// line breaks in notes survive.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// maxBlankLines caps consecutive empty lines kept in multi-line text.
const maxBlankLines = 1

// Text returns the visible text of s. Script and style bodies are discarded,
// runs of spaces inside a line collapse to one and surrounding space is trimmed.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return tidyLines(s)
	}
	return tidyLines(visibleText(s))
}

// TextPtr applies Text to an optional field.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}

// Name is Text folded onto a single line, for client and BDA names.
func Name(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

func visibleText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is kept.
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func tidyLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, func(r rune) bool {
			return r != '\n' && unicode.IsSpace(r)
		}), " ")
		if line == "" {
			blank++
			if blank > maxBlankLines {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
