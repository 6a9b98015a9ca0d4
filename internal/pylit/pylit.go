// Package pylit evaluates Python literal expressions, the subset accepted by
// Python's ast.literal_eval: strings, numbers, True/False/None, and nested
// lists, tuples and dicts. Odoo addon manifests are exactly such literals.
package pylit

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a syntax error with its position in the source.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("python literal: %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse evaluates a single Python literal expression. Comments and
// whitespace around and inside the expression are ignored. Values map to Go
// as: str -> string, int -> int64, float -> float64, bool -> bool,
// None -> nil, list/tuple -> []any, dict -> map[string]any.
//
// Dict keys must be strings; anything else is a syntax error. That matches
// every manifest key Odoo accepts.
func Parse(src string) (any, error) {
	p := &parser{src: src, line: 1, col: 1}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

type parser struct {
	src  string
	pos  int
	line int
	col  int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace and # comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.advance()
		case c == '#':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		case c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n':
			// Line continuation.
			p.advance()
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) parseValue() (any, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '{':
		return p.parseDict()
	case c == '[':
		return p.parseSeq('[', ']')
	case c == '(':
		return p.parseSeq('(', ')')
	case c == '\'' || c == '"' || isStringPrefix(c) && p.prefixStartsString():
		return p.parseString()
	case c == '-' || c == '+' || c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseKeyword()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) parseDict() (any, error) {
	p.advance() // '{'
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated dict")
		}
		if p.peek() == '}' {
			p.advance()
			return out, nil
		}
		key, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		keyStr, ok := key.(string)
		if !ok {
			return nil, p.errorf("dict key must be a string, got %T", key)
		}
		p.skipSpace()
		if p.eof() || p.peek() != ':' {
			return nil, p.errorf("expected ':' after dict key")
		}
		p.advance()
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[keyStr] = val
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated dict")
		}
		switch p.peek() {
		case ',':
			p.advance()
		case '}':
			p.advance()
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}
	}
}

// parseSeq parses a list or tuple; both map to []any.
func (p *parser) parseSeq(open, clos byte) (any, error) {
	p.advance() // open
	out := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated sequence")
		}
		if p.peek() == clos {
			p.advance()
			return out, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated sequence")
		}
		switch p.peek() {
		case ',':
			p.advance()
		case clos:
			p.advance()
			return out, nil
		default:
			return nil, p.errorf("expected ',' or %q in sequence", clos)
		}
	}
}

func isStringPrefix(c byte) bool {
	switch c {
	case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// parseString parses one string literal, honoring implicit adjacent
// concatenation ("a" "b" == "ab").
func (p *parser) parseString() (any, error) {
	s, err := p.parseOneString()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.peek()
		if c == '\'' || c == '"' || isStringPrefix(c) && p.prefixStartsString() {
			next, nextErr := p.parseOneString()
			if nextErr != nil {
				return nil, nextErr
			}
			s += next
			continue
		}
		break
	}
	return s, nil
}

// prefixStartsString reports whether the identifier at the current position
// is a string prefix immediately followed by a quote.
func (p *parser) prefixStartsString() bool {
	i := p.pos
	for i < len(p.src) && i-p.pos < 2 && isStringPrefix(p.src[i]) {
		i++
	}
	return i < len(p.src) && (p.src[i] == '\'' || p.src[i] == '"')
}

func (p *parser) parseOneString() (string, error) {
	raw := false
	for !p.eof() && isStringPrefix(p.peek()) {
		c := p.advance()
		if c == 'r' || c == 'R' {
			raw = true
		}
	}
	if p.eof() {
		return "", p.errorf("expected string literal")
	}
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected string quote, got %q", quote)
	}
	p.advance()

	triple := false
	if p.pos+1 < len(p.src) && p.src[p.pos] == quote && p.src[p.pos+1] == quote {
		triple = true
		p.advance()
		p.advance()
	}

	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.peek()
		if c == quote {
			if !triple {
				p.advance()
				return sb.String(), nil
			}
			if strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3)) {
				p.advance()
				p.advance()
				p.advance()
				return sb.String(), nil
			}
			sb.WriteByte(p.advance())
			continue
		}
		if c == '\n' && !triple {
			return "", p.errorf("newline in single-quoted string")
		}
		if c == '\\' && !raw {
			p.advance()
			if p.eof() {
				return "", p.errorf("unterminated escape sequence")
			}
			esc, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			sb.WriteString(esc)
			continue
		}
		sb.WriteByte(p.advance())
	}
}

func (p *parser) parseEscape() (string, error) {
	c := p.advance()
	switch c {
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case 'r':
		return "\r", nil
	case '0':
		return "\x00", nil
	case 'a':
		return "\a", nil
	case 'b':
		return "\b", nil
	case 'f':
		return "\f", nil
	case 'v':
		return "\v", nil
	case '\\', '\'', '"':
		return string(c), nil
	case '\n':
		// Escaped newline: continuation inside the string.
		return "", nil
	case 'x':
		return p.parseHexEscape(2)
	case 'u':
		return p.parseHexEscape(4)
	case 'U':
		return p.parseHexEscape(8)
	default:
		// Python leaves unknown escapes intact.
		return "\\" + string(c), nil
	}
}

func (p *parser) parseHexEscape(n int) (string, error) {
	if p.pos+n > len(p.src) {
		return "", p.errorf("truncated hex escape")
	}
	digits := p.src[p.pos : p.pos+n]
	code, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return "", p.errorf("invalid hex escape %q", digits)
	}
	for range n {
		p.advance()
	}
	return string(rune(code)), nil
}

func (p *parser) parseNumber() (any, error) {
	start := p.pos
	if p.peek() == '+' || p.peek() == '-' {
		p.advance()
	}
	isFloat := false
	for !p.eof() {
		c := p.peek()
		switch {
		case c >= '0' && c <= '9' || c == '_':
			p.advance()
		case c == '.':
			isFloat = true
			p.advance()
		case c == 'e' || c == 'E':
			isFloat = true
			p.advance()
			if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
				p.advance()
			}
		default:
			goto done
		}
	}
done:
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if text == "" || text == "+" || text == "-" {
		return nil, p.errorf("invalid number")
	}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid float %q", text)
		}
		return f, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid integer %q", text)
	}
	return i, nil
}

func (p *parser) parseKeyword() (any, error) {
	start := p.pos
	for !p.eof() && (isIdentStart(p.peek()) || p.peek() >= '0' && p.peek() <= '9') {
		p.advance()
	}
	switch word := p.src[start:p.pos]; word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	default:
		return nil, p.errorf("not a literal: %q", word)
	}
}
