// Package content holds the scanned documents of a build in one shared buffer.
//
// An Arena is filled by a single goroutine during the directory walk and then
// frozen into a Content, which is read-only and safe to share between workers
// without locking. Documents are addressed by Token: three byte ranges into
// the buffer for the path, the metadata block and the body.
package content

import (
	"errors"
	"strings"
)

// ErrFrozen is returned when pushing into an arena that was already frozen.
var ErrFrozen = errors.New("content: arena is frozen")

// Token references one document inside the arena buffer.
type Token struct {
	Path     Range
	Metadata Range
	Body     Range
}

// Arena accumulates documents during the scan phase.
type Arena struct {
	buf    strings.Builder
	tokens []Token
	frozen bool
}

// NewArena returns an arena with room for roughly size bytes of text.
func NewArena(size int) *Arena {
	a := &Arena{}
	if size > 0 {
		a.buf.Grow(size)
	}
	return a
}

// PushFile appends path and raw to the buffer, records the document's token
// and returns its position in scan order.
func (a *Arena) PushFile(path string, raw []byte) (int, error) {
	if a.frozen {
		return 0, ErrFrozen
	}

	base := a.buf.Len()
	a.buf.WriteString(path)
	textStart := a.buf.Len()
	a.buf.Write(raw)

	meta, body := Classify(raw)
	a.tokens = append(a.tokens, Token{
		Path:     Range{Start: base, End: textStart},
		Metadata: meta.shift(textStart),
		Body:     body.shift(textStart),
	})
	return len(a.tokens) - 1, nil
}

// Len returns the number of documents pushed so far.
func (a *Arena) Len() int { return len(a.tokens) }

// Freeze hands the arena contents over to a read-only Content. The arena
// rejects further pushes.
func (a *Arena) Freeze() *Content {
	a.frozen = true
	return &Content{text: a.buf.String(), tokens: a.tokens}
}

// Content is the frozen, shareable view of an arena.
type Content struct {
	text    string
	tokens  []Token
	skipped int
}

// Len returns the number of documents.
func (c *Content) Len() int { return len(c.tokens) }

// Skipped returns how many listed files Scan could not read.
func (c *Content) Skipped() int { return c.skipped }

// Tokens returns every token in scan order. Callers must not modify the slice.
func (c *Content) Tokens() []Token { return c.tokens }

// Token returns the token at position i.
func (c *Content) Token(i int) Token { return c.tokens[i] }

func (c *Content) slice(r Range) string { return c.text[r.Start:r.End] }

// Path returns the document's path relative to the scanned root.
func (c *Content) Path(t Token) string { return c.slice(t.Path) }

// Metadata returns the raw metadata block without its delimiters.
func (c *Content) Metadata(t Token) string { return c.slice(t.Metadata) }

// Body returns the raw document body.
func (c *Content) Body(t Token) string { return c.slice(t.Body) }

// Raw returns the full document text as it was read.
func (c *Content) Raw(t Token) string {
	return c.text[t.Path.End:t.Body.End]
}
