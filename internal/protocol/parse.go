package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes one or more messages. Messages may be separated by
// whitespace or semicolons. Parsed values are Quoted, Raw, Text or List.
func Parse(text string) ([]*Message, error) {
	p := &parser{src: text}
	var out []*Message
	for {
		p.skipSeparators()
		if p.eof() {
			return out, nil
		}
		m, err := p.message()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
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

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) skipSeparators() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n', ';':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

// token reads a bare word up to one of the stop bytes.
func (p *parser) token(stop string) string {
	start := p.pos
	for !p.eof() && strings.IndexByte(stop, p.src[p.pos]) < 0 {
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) message() (*Message, error) {
	p.skipSpace()
	tag := p.token("{,}[]=;\"`")
	if tag == "" {
		return nil, p.errorf("missing message tag")
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	m := New(tag)
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return m, nil
	}
	for {
		p.skipSpace()
		key := p.token("=,{}[]\"`")
		if key == "" {
			return nil, p.errorf("missing field key in %q", tag)
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m.Fields = append(m.Fields, Field{Key: key, Value: v})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return m, nil
		default:
			return nil, p.errorf("unterminated message %q", tag)
		}
	}
}

func (p *parser) value() (Value, error) {
	p.skipSpace()
	switch p.peek() {
	case '"':
		p.pos++
		return p.quoted()
	case '`':
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], '`')
		if end < 0 {
			return nil, p.errorf("unterminated raw literal")
		}
		v := Raw(p.src[p.pos : p.pos+end])
		p.pos += end + 1
		return v, nil
	case '[':
		p.pos++
		return p.list()
	default:
		return Text(p.token(",}]")), nil
	}
}

func (p *parser) quoted() (Value, error) {
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '"':
			return Quoted(b.String()), nil
		case '\\':
			if p.eof() {
				return nil, p.errorf("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *parser) list() (Value, error) {
	var items List
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return items, nil
	}
	for {
		m, err := p.message()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, p.errorf("unterminated list")
		}
	}
}

// StringField returns the textual form of a scalar field.
func (m *Message) StringField(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case Text:
		return string(v), true
	case Quoted:
		return string(v), true
	case Raw:
		return string(v), true
	case List:
		return "", false
	default:
		return string(v.appendTo(nil)), true
	}
}

// IntField parses key as an integer.
func (m *Message) IntField(key string) (int, error) {
	s, ok := m.StringField(key)
	if !ok {
		return 0, fmt.Errorf("%s: missing field %q", m.Tag, key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%s: field %q: %w", m.Tag, key, err)
		}
		n = int(f)
	}
	return n, nil
}

// FloatField parses key as a number.
func (m *Message) FloatField(key string) (float64, error) {
	s, ok := m.StringField(key)
	if !ok {
		return 0, fmt.Errorf("%s: missing field %q", m.Tag, key)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: field %q: %w", m.Tag, key, err)
	}
	return f, nil
}

// BoolField parses key as a flag. A missing field is false.
func (m *Message) BoolField(key string) (bool, error) {
	s, ok := m.StringField(key)
	if !ok {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "", "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s: field %q: invalid flag %q", m.Tag, key, s)
}

// ListField returns the sub-messages stored under key.
func (m *Message) ListField(key string) List {
	if v, ok := m.Get(key); ok {
		if l, ok := v.(List); ok {
			return l
		}
	}
	return nil
}
