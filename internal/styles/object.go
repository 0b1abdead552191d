// Package styles parses inline style object literals such as
//
//	style={{ borderRadius: '8px', color: "#fff", padding: 4 }}
//
// without evaluating them. Only flat objects with string, number and bare
// identifier values are accepted; anything else is rejected.
package styles

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for object literals that use features outside
// the flat key/value subset (nested objects, arrays, expressions, spreads).
var ErrUnsupported = errors.New("unsupported style expression")

// Object is a parsed style object. Keys keeps declaration order.
type Object struct {
	Keys   []string
	Values map[string]string

	// bare marks number and identifier values, rendered without quotes.
	bare map[string]bool
}

// Get returns the value for key.
func (o Object) Get(key string) (string, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Set replaces or appends key with a string value.
func (o *Object) Set(key, value string) {
	o.set(key, value, false)
}

func (o *Object) set(key, value string, bare bool) {
	if o.Values == nil {
		o.Values = make(map[string]string)
	}
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
	if bare {
		if o.bare == nil {
			o.bare = make(map[string]bool)
		}
		o.bare[key] = true
	} else {
		delete(o.bare, key)
	}
}

// String renders the object back to a literal. String values are single
// quoted; numbers and identifiers are written as parsed.
func (o Object) String() string {
	if len(o.Keys) == 0 {
		return "{}"
	}
	parts := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		name := k
		if !isIdent(k) {
			name = quote(k)
		}
		if o.bare[k] {
			parts[i] = name + ": " + o.Values[k]
			continue
		}
		parts[i] = name + ": " + quote(o.Values[k])
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// ParseObject parses a single object literal including its outer braces.
func ParseObject(src string) (Object, error) {
	p := &parser{src: src}
	obj, err := p.object()
	if err != nil {
		return Object{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Object{}, fmt.Errorf("trailing input at offset %d: %w", p.pos, ErrUnsupported)
	}
	return obj, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) object() (Object, error) {
	obj := Object{Values: make(map[string]string)}
	p.skipSpace()
	if !p.consume('{') {
		return Object{}, fmt.Errorf("expected '{' at offset %d", p.pos)
	}
	for {
		p.skipSpace()
		if p.consume('}') {
			return obj, nil
		}
		key, err := p.key()
		if err != nil {
			return Object{}, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return Object{}, fmt.Errorf("expected ':' after %q: %w", key, ErrUnsupported)
		}
		p.skipSpace()
		val, bare, err := p.value()
		if err != nil {
			return Object{}, fmt.Errorf("value for %q: %w", key, err)
		}
		obj.set(key, val, bare)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('}') {
			return obj, nil
		}
		return Object{}, fmt.Errorf("expected ',' or '}' at offset %d: %w", p.pos, ErrUnsupported)
	}
}

func (p *parser) key() (string, error) {
	if p.eof() {
		return "", fmt.Errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '\'' || c == '"':
		return p.quoted()
	case isIdentStart(c):
		return p.ident(), nil
	default:
		return "", fmt.Errorf("unexpected %q at offset %d: %w", c, p.pos, ErrUnsupported)
	}
}

func (p *parser) value() (string, bool, error) {
	if p.eof() {
		return "", false, fmt.Errorf("unexpected end of input")
	}
	c := p.src[p.pos]
	switch {
	case c == '\'' || c == '"':
		s, err := p.quoted()
		return s, false, err
	case c == '-' || c == '.' || isDigit(c):
		s, err := p.number()
		return s, true, err
	case isIdentStart(c):
		id := p.ident()
		p.skipSpace()
		if !p.eof() && (p.src[p.pos] == '(' || p.src[p.pos] == '.' || p.src[p.pos] == '[') {
			return "", false, ErrUnsupported
		}
		return id, true, nil
	default:
		return "", false, fmt.Errorf("unexpected %q at offset %d: %w", c, p.pos, ErrUnsupported)
	}
}

func (p *parser) quoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\n':
			return "", fmt.Errorf("unterminated string")
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *parser) number() (string, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	digits := 0
	for !p.eof() && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
		digits++
	}
	if digits == 0 {
		return "", fmt.Errorf("malformed number at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && (isIdentStart(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentStart(s[i]) && !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
