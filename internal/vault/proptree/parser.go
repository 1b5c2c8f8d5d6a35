package proptree

import (
	"fmt"
	"strings"
)

type parser struct {
	buf []byte
	pos int
}

// Parse reads a full document into its root node. The root's entries may
// be listed directly or wrapped in one explicit brace pair; both forms
// denote the same tree, and hand-written import files use either.
func Parse(data []byte) (*Node, error) {
	p := &parser{buf: data}
	root := &Node{}
	p.skipSpace()
	if p.peek() == '{' {
		p.pos++
		if err := p.parseEntries(root, true); err != nil {
			return nil, err
		}
	} else if err := p.parseEntries(root, false); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.buf) {
		return nil, fmt.Errorf("proptree: unexpected trailing data at offset %d", p.pos)
	}
	return root, nil
}

func (p *parser) atEOF() bool {
	return p.pos >= len(p.buf)
}

func (p *parser) peek() byte {
	if p.atEOF() {
		return 0
	}
	return p.buf[p.pos]
}

// skipSpace skips whitespace and "// ..." line comments.
func (p *parser) skipSpace() {
	for !p.atEOF() {
		c := p.buf[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == '/' && p.pos+1 < len(p.buf) && p.buf[p.pos+1] == '/':
			for !p.atEOF() && p.buf[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isBareWordByte(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '=', ';', '"':
		return false
	default:
		return true
	}
}

func (p *parser) readKey() (string, error) {
	start := p.pos
	for !p.atEOF() && isBareWordByte(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("proptree: expected a key at offset %d", p.pos)
	}
	return string(p.buf[start:p.pos]), nil
}

func (p *parser) readValue() (string, error) {
	if p.peek() == '"' {
		return p.readQuoted()
	}
	start := p.pos
	for !p.atEOF() && isBareWordByte(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("proptree: expected a value at offset %d", p.pos)
	}
	return string(p.buf[start:p.pos]), nil
}

func (p *parser) readQuoted() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.atEOF() {
			return "", fmt.Errorf("proptree: unterminated quoted string")
		}
		c := p.buf[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if p.atEOF() {
				return "", fmt.Errorf("proptree: unterminated escape sequence")
			}
			switch p.buf[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(p.buf[p.pos])
			default:
				sb.WriteByte(p.buf[p.pos])
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
}

// parseEntries reads entries into node until a matching '}' (insideBraces)
// or end of input (top level).
func (p *parser) parseEntries(node *Node, insideBraces bool) error {
	for {
		p.skipSpace()
		if p.atEOF() {
			if insideBraces {
				return fmt.Errorf("proptree: unexpected end of input, missing '}'")
			}
			return nil
		}
		if insideBraces && p.peek() == '}' {
			p.pos++
			return nil
		}

		key, err := p.readKey()
		if err != nil {
			return err
		}
		p.skipSpace()

		switch p.peek() {
		case '=':
			p.pos++
			p.skipSpace()
			value, err := p.readValue()
			if err != nil {
				return err
			}
			node.Set(key, value)
			p.skipSpace()
			if p.peek() == ';' {
				p.pos++
			}
		case '{':
			p.pos++
			child := node.AppendNode(key)
			if err := p.parseEntries(child, true); err != nil {
				return err
			}
			p.skipSpace()
			if p.peek() == ';' {
				p.pos++
			}
		default:
			return fmt.Errorf("proptree: expected '=' or '{' after key %q at offset %d", key, p.pos)
		}
	}
}
