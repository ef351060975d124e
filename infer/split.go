package infer

import (
	"regexp"
	"strings"
)

var delimiterTokens = map[string]string{
	"newline": "\n",
	"tab":     "\t",
	"space":   " ",
}

// ResolveDelimiter maps the named tokens newline, tab and space to their
// characters. Anything else is a literal delimiter.
func ResolveDelimiter(d string) string {
	if r, ok := delimiterTokens[d]; ok {
		return r
	}
	return d
}

var objectBoundary = regexp.MustCompile(`}\s*{`)

// Document is one piece of a concatenated input and the byte offset it
// starts at.
type Document struct {
	Text   string
	Offset int
}

// SplitDocuments splits concatenated documents on delim. An empty delim
// splits between a closing and an opening brace separated only by
// whitespace. Pieces are trimmed and blank pieces dropped.
func SplitDocuments(text, delim string) []Document {
	var docs []Document
	add := func(start, end int) {
		piece := text[start:end]
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			return
		}
		docs = append(docs, Document{Text: trimmed, Offset: start + strings.Index(piece, trimmed)})
	}

	if delim == "" {
		start := 0
		for _, m := range objectBoundary.FindAllStringIndex(text, -1) {
			// keep the braces on their own sides
			add(start, m[0]+1)
			start = m[1] - 1
		}
		add(start, len(text))
		return docs
	}

	start := 0
	for {
		i := strings.Index(text[start:], delim)
		if i < 0 {
			break
		}
		add(start, start+i)
		start += i + len(delim)
	}
	add(start, len(text))
	return docs
}
