// Package frontmatter parses the YAML-like metadata block at the top of a
// content file.
//
// The supported subset covers `key: value` pairs, quoted and bare scalars,
// numbers, inline lists and objects, and indented block lists and objects.
// Anchors, comments, multi-document streams and complex scalars are not
// handled. The result is a flat pre-order sequence of nodes that reference
// their parent by position; no pointer tree is built.
package frontmatter

import (
	"log/slog"
	"strings"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for warnings raised by queries on the
// parsed result.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser is a single-use cursor over one metadata block.
type Parser struct {
	src    string
	pos    int
	start  int
	length int

	// indent is the indentation of the line the cursor is on, measured
	// when the line was entered.
	indent    int
	lineStart bool
	flow      int

	nodes []Node
	tags  int
	draft int

	logger *slog.Logger
}

// NewParser returns a parser over src with surrounding whitespace trimmed.
func NewParser(src string, opts ...Option) *Parser {
	src = strings.TrimSpace(src)
	p := &Parser{
		src:    src,
		length: len(src),
		nodes:  make([]Node, 0, strings.Count(src, ":")*2+1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a metadata block into a YAML value.
func Parse(src string, opts ...Option) (*YAML, error) {
	return NewParser(src, opts...).Parse()
}

// Parse consumes the parser. It must be called at most once.
func (p *Parser) Parse() (*YAML, error) {
	if err := p.parseMembers(0, 0); err != nil {
		return nil, err
	}
	return &YAML{
		src:    p.src,
		nodes:  p.nodes,
		ends:   indexSubtrees(p.nodes),
		tags:   p.tags,
		draft:  p.draft,
		logger: p.logger,
	}, nil
}

// parseMembers parses `key: value` lines at the given indentation until a
// line with less indentation or the end of input.
func (p *Parser) parseMembers(parent, indent int) error {
	for !p.eof() {
		key, err := p.parseKey(parent)
		if err != nil {
			return err
		}
		if err := p.parseValue(key, indent); err != nil {
			return err
		}
		if err := p.endLine(); err != nil {
			return err
		}
		// A deeper line after a complete value nests under the key.
		for !p.eof() && p.indent > indent {
			if err := p.parseBlock(key, p.indent); err != nil {
				return err
			}
		}
		if p.indent < indent {
			return nil
		}
	}
	return nil
}

func (p *Parser) parseKey(parent int) (int, error) {
	p.commit()
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ':':
			end := p.trimEnd()
			if end == p.start {
				return 0, p.fail(ErrEmptyScalar)
			}
			pos := p.pushRange(KindKey, parent, p.start, end)
			if parent == 0 {
				p.cacheKey(unquote(p.src[p.start:end]), pos)
			}
			p.advance()
			p.skipWS()
			p.commit()
			return pos, nil
		case c == '\n' || c == '\r':
			return 0, p.expected(':')
		case p.flow > 0 && (c == ',' || c == '}' || c == ']'):
			return 0, p.expected(':')
		}
		p.advance()
	}
	return 0, p.expected(':')
}

func (p *Parser) cacheKey(name string, pos int) {
	switch name {
	case "tags":
		if p.tags == 0 {
			p.tags = pos
		}
	case "draft":
		if p.draft == 0 {
			p.draft = pos
		}
	}
}

func (p *Parser) parseValue(parent, indent int) error {
	if p.eof() {
		return p.fail(ErrUnexpectedEOF)
	}
	p.commit()
	switch c := p.peek(); {
	case c == '[':
		return p.parseFlowList(parent, indent)
	case c == '{':
		return p.parseFlowObject(parent, indent)
	case c == '\n' || c == '\r':
		return p.parseBlockValue(parent, indent)
	case c == '"' || c == '\'':
		return p.parseQuoted(parent)
	case c == '-' || isDigit(c):
		return p.parseNumber(parent)
	default:
		return p.parseScalar(parent)
	}
}

// parseBlockValue handles a value that starts on the next line.
func (p *Parser) parseBlockValue(parent, indent int) error {
	p.newline()
	if p.eof() {
		return p.fail(ErrUnexpectedEOF)
	}
	// A key may own a block list written at its own indentation.
	ownsList := p.nodes[parent-1].Kind == KindKey && p.indent == indent && p.isSequenceIndicator()
	if p.indent > indent || ownsList {
		return p.parseBlock(parent, p.indent)
	}
	p.pushRange(KindNull, parent, p.pos, p.pos)
	return nil
}

func (p *Parser) parseBlock(parent, indent int) error {
	if p.isSequenceIndicator() {
		return p.parseBlockList(parent, indent)
	}
	p.commit()
	obj := p.push(KindObject, parent)
	return p.parseMembers(obj, indent)
}

func (p *Parser) parseBlockList(parent, indent int) error {
	p.commit()
	list := p.push(KindList, parent)
	for p.isSequenceIndicator() {
		p.advance()
		col := indent + 1 + p.skipSpaces()
		if p.itemIsMapping() {
			// `- key: v` opens an object whose members align with the key.
			p.commit()
			obj := p.push(KindObject, list)
			if err := p.parseMembers(obj, col); err != nil {
				return err
			}
		} else if err := p.parseValue(list, indent); err != nil {
			return err
		}
		if err := p.endLine(); err != nil {
			return err
		}
		for !p.eof() && p.indent > indent {
			if err := p.parseBlock(list, p.indent); err != nil {
				return err
			}
		}
		if p.eof() || p.indent < indent {
			return nil
		}
	}
	return nil
}

func (p *Parser) parseFlowList(parent, indent int) error {
	p.advance()
	p.flow++
	p.skipWS()
	p.commit()
	list := p.push(KindList, parent)
	if !p.eof() && p.peek() == ']' {
		return p.closeFlow()
	}
	for {
		if err := p.parseValue(list, indent); err != nil {
			return err
		}
		p.skipWS()
		if p.eof() {
			return p.expected(']')
		}
		switch p.peek() {
		case ']':
			return p.closeFlow()
		case ',':
			p.advance()
			p.skipWS()
		default:
			return p.expected(']')
		}
	}
}

func (p *Parser) parseFlowObject(parent, indent int) error {
	p.advance()
	p.flow++
	p.skipWS()
	p.commit()
	obj := p.push(KindObject, parent)
	for {
		if p.eof() {
			return p.expected('}')
		}
		if p.peek() == '}' {
			return p.closeFlow()
		}
		key, err := p.parseKey(obj)
		if err != nil {
			return err
		}
		if err := p.parseValue(key, indent); err != nil {
			return err
		}
		p.skipWS()
		if p.eof() {
			return p.expected('}')
		}
		switch p.peek() {
		case ',':
			p.advance()
			p.skipWS()
		case '}':
		default:
			return p.expected('}')
		}
	}
}

func (p *Parser) closeFlow() error {
	p.advance()
	p.flow--
	p.commit()
	return nil
}

func (p *Parser) parseQuoted(parent int) error {
	q := p.peek()
	p.advance()
	for !p.eof() {
		if p.peek() == q {
			p.advance()
			p.push(KindString, parent)
			p.commit()
			return nil
		}
		p.advance()
	}
	return p.expected(q)
}

// parseNumber tries a signed integer or decimal. Anything else before the
// terminator turns the value into a bare scalar that starts at the same
// place, so "42.0.1" stays whole.
func (p *Parser) parseNumber(parent int) error {
	if p.peek() == '-' {
		p.advance()
		if p.eof() || !isDigit(p.peek()) {
			return p.fail(ErrExpectedDigit)
		}
	}

	dot := false
	for !p.atTerminator() {
		c := p.peek()
		switch {
		case isDigit(c):
		case c == '.' && !dot:
			dot = true
		case c == ' ' || c == '\t':
			if p.spacesToTerminator() {
				return p.finishNumber(parent)
			}
			return p.parseScalar(parent)
		default:
			return p.parseScalar(parent)
		}
		p.advance()
	}
	return p.finishNumber(parent)
}

func (p *Parser) finishNumber(parent int) error {
	end := p.trimEnd()
	if p.src[end-1] == '.' {
		return p.parseScalar(parent)
	}
	p.pushRange(KindNumber, parent, p.start, end)
	p.skipSpaces()
	p.commit()
	return nil
}

func (p *Parser) parseScalar(parent int) error {
	for !p.atTerminator() {
		p.advance()
	}
	end := p.trimEnd()
	text := p.src[p.start:end]
	if text == "" {
		return p.fail(ErrEmptyScalar)
	}
	p.pushRange(classifyScalar(text), parent, p.start, end)
	p.commit()
	return nil
}

func classifyScalar(text string) Kind {
	switch text {
	case "true", "false", "YES", "NO":
		return KindBool
	case "NULL":
		return KindNull
	default:
		return KindString
	}
}

// endLine requires the rest of the current line to be blank and moves to
// the next non-blank line.
func (p *Parser) endLine() error {
	if p.lineStart || p.eof() {
		return nil
	}
	p.skipSpaces()
	if p.eof() {
		return nil
	}
	if c := p.peek(); c == '\n' || c == '\r' {
		p.newline()
		return nil
	}
	return p.expected('\n')
}

// newline skips line breaks and blank lines, recording the indentation of
// the first line that has content.
func (p *Parser) newline() {
	for {
		for !p.eof() && (p.peek() == '\n' || p.peek() == '\r') {
			p.advance()
		}
		p.indent = p.skipSpaces()
		if p.eof() || (p.peek() != '\n' && p.peek() != '\r') {
			break
		}
	}
	p.commit()
	p.lineStart = true
}

// skipSpaces skips spaces and tabs and returns their width.
func (p *Parser) skipSpaces() int {
	n := 0
	for !p.eof() {
		switch p.peek() {
		case ' ':
			n++
		case '\t':
			n += 2
		default:
			return n
		}
		p.advance()
	}
	return n
}

// skipWS skips spaces, and line breaks as well inside inline collections.
func (p *Parser) skipWS() {
	if p.flow == 0 {
		p.skipSpaces()
		return
	}
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.advance()
		default:
			return
		}
	}
}

func (p *Parser) spacesToTerminator() bool {
	i := p.pos
	for i < p.length && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	return i == p.length || p.isTerminator(p.src[i])
}

func (p *Parser) atTerminator() bool {
	return p.eof() || p.isTerminator(p.peek())
}

func (p *Parser) isTerminator(c byte) bool {
	if c == '\n' || c == '\r' {
		return true
	}
	return p.flow > 0 && (c == ',' || c == ']' || c == '}')
}

func (p *Parser) isSequenceIndicator() bool {
	if p.eof() || p.peek() != '-' {
		return false
	}
	if p.pos+1 >= p.length {
		return true
	}
	switch p.src[p.pos+1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// itemIsMapping reports whether the rest of the line is a bare `key:`
// followed by a space or the end of the line.
func (p *Parser) itemIsMapping() bool {
	if p.eof() {
		return false
	}
	switch p.peek() {
	case '"', '\'', '[', '{', '\n', '\r':
		return false
	}
	for i := p.pos; i < p.length; i++ {
		switch p.src[i] {
		case '\n', '\r':
			return false
		case ':':
			return i+1 == p.length || p.src[i+1] == ' ' || p.src[i+1] == '\t' ||
				p.src[i+1] == '\n' || p.src[i+1] == '\r'
		}
	}
	return false
}

func (p *Parser) push(kind Kind, parent int) int {
	return p.pushRange(kind, parent, p.start, p.pos)
}

func (p *Parser) pushRange(kind Kind, parent, start, end int) int {
	p.nodes = append(p.nodes, Node{Kind: kind, Parent: parent, Start: start, End: end})
	return len(p.nodes)
}

// trimEnd returns the current position with trailing spaces since start removed.
func (p *Parser) trimEnd() int {
	end := p.pos
	for end > p.start && (p.src[end-1] == ' ' || p.src[end-1] == '\t') {
		end--
	}
	return end
}

func (p *Parser) eof() bool  { return p.pos >= p.length }
func (p *Parser) peek() byte { return p.src[p.pos] }
func (p *Parser) commit()    { p.start = p.pos }

func (p *Parser) advance() {
	p.pos++
	p.lineStart = false
}

func (p *Parser) fail(err error) error {
	return &SyntaxError{Err: err, Offset: p.pos}
}

func (p *Parser) expected(c byte) error {
	return &SyntaxError{Err: ErrExpected, Offset: p.pos, Want: c}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
