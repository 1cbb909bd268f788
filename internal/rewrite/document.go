package rewrite

import (
	"strings"
)

// Document is a text file held in memory for the duration of one pipeline
// run. Original is never modified; Text is the working buffer.
type Document struct {
	Path     string
	Original []byte
	Text     string
}

// NewDocument wraps content read from path
func NewDocument(path string, content []byte) *Document {
	return &Document{
		Path:     path,
		Original: content,
		Text:     string(content),
	}
}

// Changed reports whether the working buffer differs from the original bytes
func (d *Document) Changed() bool {
	return d.Text != string(d.Original)
}

// lineOf returns the 1-based line number of byte offset off in text
func lineOf(text string, off int) int {
	return strings.Count(text[:off], "\n") + 1
}

// lineEnding returns "\r\n" when the line ending at end uses CRLF
func lineEnding(text string, end int) string {
	if end > 0 && end <= len(text) && text[end-1] == '\r' {
		return "\r\n"
	}
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
