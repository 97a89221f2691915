package objlit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

var (
	// ErrSyntax is returned for input outside the accepted grammar.
	ErrSyntax = errors.New("objlit: syntax error")

	// ErrTooDeep is returned when nesting exceeds the parser's bound.
	ErrTooDeep = errors.New("objlit: nesting too deep")
)

// SyntaxError reports where parsing failed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("objlit: %s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Parse parses src as exactly one value. Surrounding whitespace, comments
// and a single trailing semicolon are allowed.
func Parse(src string) (any, error) {
	v, end, err := ParseAt(src, 0)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, pos: end}
	p.skipSpace()
	if p.peek() == ';' {
		p.pos++
		p.skipSpace()
	}
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

// ParseAt parses one value starting at offset and returns it together with
// the offset just past it.
func ParseAt(src string, offset int) (any, int, error) {
	p := &parser{src: src, pos: offset}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, offset, err
	}
	return v, p.pos, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "//"):
			if i := strings.IndexByte(p.src[p.pos:], '\n'); i >= 0 {
				p.pos += i + 1
			} else {
				p.pos = len(p.src)
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			if i := strings.Index(p.src[p.pos+2:], "*/"); i >= 0 {
				p.pos += i + 4
			} else {
				p.pos = len(p.src)
			}
		case strings.HasPrefix(p.src[p.pos:], "\u00a0"), strings.HasPrefix(p.src[p.pos:], "\ufeff"):
			_, size := utf8.DecodeRuneInString(p.src[p.pos:])
			p.pos += size
		default:
			return
		}
	}
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}

	start := p.pos
	switch c := p.peek(); {
	case c == '{':
		return p.object(depth)
	case c == '[':
		return p.array(depth)
	case c == '"' || c == '\'':
		return p.quoted()
	case c == '`':
		s, ok, err := p.template()
		if err != nil {
			return nil, err
		}
		if !ok {
			return Expr(p.src[start:p.pos]), nil
		}
		return s, nil
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		if n, ok := p.number(); ok && p.atValueEnd() {
			return n, nil
		}
		p.pos = start
		return p.expr()
	case isIdentStart(c):
		word := p.ident()
		if p.atValueEnd() {
			switch word {
			case "true":
				return true, nil
			case "false":
				return false, nil
			case "null", "undefined":
				return nil, nil
			}
		}
		p.pos = start
		return p.expr()
	case c == '}' || c == ']' || c == ',' || c == ':':
		return nil, p.errorf("unexpected %q", c)
	default:
		return p.expr()
	}
}

// atValueEnd reports whether the next significant character terminates a
// value inside an object or array (or the input ends).
func (p *parser) atValueEnd() bool {
	save := p.pos
	p.skipSpace()
	c := p.peek()
	p.pos = save
	return c == 0 || c == ',' || c == '}' || c == ']' || c == ';'
}

func (p *parser) object(depth int) (any, error) {
	p.pos++ // {
	obj := newObject()
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated object")
		}
		if p.peek() == '}' {
			p.pos++
			return obj, nil
		}

		if strings.HasPrefix(p.src[p.pos:], "...") {
			if _, err := p.expr(); err != nil {
				return nil, err
			}
		} else if p.peek() == '[' {
			// computed key: [expr]: value
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			p.skipSpace()
			if p.peek() == ':' {
				p.pos++
			}
			if _, err := p.expr(); err != nil {
				return nil, err
			}
		} else {
			key, err := p.key()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			switch p.peek() {
			case ':':
				p.pos++
				v, err := p.value(depth + 1)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			case ',', '}':
				obj.set(key, Expr(key)) // shorthand property
			case '(':
				if _, err := p.expr(); err != nil { // method shorthand
					return nil, err
				}
				obj.set(key, Expr(key+"()"))
			default:
				if !isIdentStart(p.peek()) {
					return nil, p.errorf("expected ':' after key %q", key)
				}
				// get/set/async/static member forms
				if _, err := p.expr(); err != nil {
					return nil, err
				}
			}
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in object")
		}
	}
}

func (p *parser) key() (string, error) {
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return p.quoted()
	case isDigit(c):
		n, ok := p.number()
		if !ok {
			return "", p.errorf("invalid numeric key")
		}
		return n.String(), nil
	case isIdentStart(c):
		return p.ident(), nil
	default:
		return "", p.errorf("invalid object key")
	}
}

func (p *parser) array(depth int) (any, error) {
	p.pos++ // [
	out := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.peek() == ']' {
			p.pos++
			return out, nil
		}
		if p.peek() == ',' { // elision
			p.pos++
			out = append(out, nil)
			continue
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']' in array")
		}
	}
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) number() (json.Number, bool) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	if strings.HasPrefix(strings.ToLower(p.src[p.pos:]), "0x") {
		p.pos += 2
		digits := p.pos
		for !p.eof() && isHexDigit(p.src[p.pos]) {
			p.pos++
		}
		return json.Number(p.src[start:p.pos]), p.pos > digits
	}
	digits := 0
	for !p.eof() && (isDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
		digits++
	}
	if p.peek() == '.' {
		p.pos++
		for !p.eof() && isDigit(p.src[p.pos]) {
			p.pos++
			digits++
		}
	}
	if digits == 0 {
		return "", false
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if c := p.peek(); c == '-' || c == '+' {
			p.pos++
		}
		exp := p.pos
		for !p.eof() && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == exp {
			return "", false
		}
	}
	return json.Number(p.src[start:p.pos]), true
}

func (p *parser) quoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		case c == '\n':
			return "", p.errorf("newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

// template parses a backtick string. ok is false when the template has
// placeholders; the parser is then positioned after the closing backtick.
func (p *parser) template() (string, bool, error) {
	p.pos++ // `
	var b strings.Builder
	literal := true
	depth := 0
	for {
		if p.eof() {
			return "", false, p.errorf("unterminated template")
		}
		c := p.src[p.pos]
		switch {
		case depth == 0 && c == '`':
			p.pos++
			return b.String(), literal, nil
		case depth == 0 && c == '\\':
			if err := p.escape(&b); err != nil {
				return "", false, err
			}
		case strings.HasPrefix(p.src[p.pos:], "${"):
			literal = false
			depth++
			p.pos += 2
		case depth > 0 && c == '{':
			depth++
			p.pos++
		case depth > 0 && c == '}':
			depth--
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.eof() {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if p.peek() == '\n' {
			p.pos++
		}
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		if p.peek() == '{' {
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end < 0 {
				return p.errorf("invalid unicode escape")
			}
			r, err := strconv.ParseUint(p.src[p.pos+1:p.pos+end], 16, 32)
			if err != nil {
				return p.errorf("invalid unicode escape")
			}
			b.WriteRune(rune(r))
			p.pos += end + 1
			return nil
		}
		return p.hexEscape(b, 4)
	default:
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) hexEscape(b *strings.Builder, n int) error {
	if p.pos+n > len(p.src) {
		return p.errorf("invalid hex escape")
	}
	r, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return p.errorf("invalid hex escape")
	}
	b.WriteRune(rune(r))
	p.pos += n
	return nil
}

// expr skips a non-literal value up to the next ',', '}' or ']' at nesting
// depth zero and returns its source text.
func (p *parser) expr() (any, error) {
	start := p.pos
	for !p.eof() {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.peek()
		switch {
		case c == ',' || c == '}' || c == ']' || c == ';':
			return p.exprText(start)
		case c == ')':
			return nil, p.errorf("unbalanced ')'")
		case c == '{' || c == '[' || c == '(':
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		case c == '"' || c == '\'':
			if _, err := p.quoted(); err != nil {
				return nil, err
			}
		case c == '`':
			if _, _, err := p.template(); err != nil {
				return nil, err
			}
		default:
			p.pos++
		}
	}
	return p.exprText(start)
}

func (p *parser) exprText(start int) (any, error) {
	text := strings.TrimSpace(p.src[start:p.pos])
	if text == "" {
		return nil, p.errorf("empty value")
	}
	return Expr(text), nil
}

// skipBalanced skips a bracketed region, honouring strings and comments.
func (p *parser) skipBalanced() error {
	var stack []byte
	for !p.eof() {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.peek()
		switch c {
		case '{', '[', '(':
			if len(stack) >= maxDepth {
				return ErrTooDeep
			}
			stack = append(stack, c)
			p.pos++
		case '}', ']', ')':
			if len(stack) == 0 || !closes(stack[len(stack)-1], c) {
				return p.errorf("unbalanced %q", c)
			}
			stack = stack[:len(stack)-1]
			p.pos++
			if len(stack) == 0 {
				return nil
			}
		case '"', '\'':
			if _, err := p.quoted(); err != nil {
				return err
			}
		case '`':
			if _, _, err := p.template(); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
	return p.errorf("unterminated bracket")
}

func closes(open, c byte) bool {
	return (open == '{' && c == '}') || (open == '[' && c == ']') || (open == '(' && c == ')')
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
