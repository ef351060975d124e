package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

func TestResolveDelimiter(t *testing.T) {
	assert.Equal(t, "\n", ResolveDelimiter("newline"))
	assert.Equal(t, "\t", ResolveDelimiter("tab"))
	assert.Equal(t, " ", ResolveDelimiter("space"))
	assert.Equal(t, "|", ResolveDelimiter("|"))
	assert.Equal(t, "", ResolveDelimiter(""))
}

func TestSplitDetectsObjectBoundaries(t *testing.T) {
	docs := SplitDocuments("{\"a\": 1}{\"b\": 2}\n\n  {\"c\": {}}\n", "")
	assert.Equal(t, []string{`{"a": 1}`, `{"b": 2}`, `{"c": {}}`}, texts(docs))
	assert.Equal(t, 0, docs[0].Offset)
	assert.Equal(t, 8, docs[1].Offset)
	assert.Equal(t, 20, docs[2].Offset)
}

func TestSplitSingleDocument(t *testing.T) {
	docs := SplitDocuments("  [1, 2]  ", "")
	assert.Equal(t, []string{"[1, 2]"}, texts(docs))
	assert.Equal(t, 2, docs[0].Offset)
}

func TestSplitLiteralDelimiter(t *testing.T) {
	docs := SplitDocuments("1\n\"a\"\n\nnull\n", "\n")
	assert.Equal(t, []string{"1", `"a"`, "null"}, texts(docs))
}

func TestSplitMultiCharDelimiter(t *testing.T) {
	docs := SplitDocuments(`{"a":1}--{"b":2}--`, "--")
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, texts(docs))
	assert.Equal(t, 9, docs[1].Offset)
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, SplitDocuments("   \n", ""))
	assert.Empty(t, SplitDocuments("", "\n"))
}
