// Package protocol implements the text encoding spoken between the page and
// the controller.
//
// Wire format: tag{key=value,key2="quoted",key3=[sub{...},sub{...}],key4=`raw`}
//
// Outbound messages are sparse: Add skips a field whose value is the zero
// value of its kind, Put always writes it. Field order is the order of the
// calls, so a call site always produces the same layout.
package protocol

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single field value.
type Value interface {
	isZero() bool
	appendTo(b []byte) []byte
}

// Int is an integer value.
type Int int64

// Float is a number written in its shortest form (12.5, 100).
type Float float64

// Flag is a boolean written as 1 or 0.
type Flag bool

// Text is a bare, unquoted token such as an element id or a CSS length.
type Text string

// Quoted is a string written between double quotes with \ and " escaped.
type Quoted string

// Raw is written between backticks without any escaping. The caller must
// guarantee the text holds no backtick; use RawSafe for arbitrary text.
type Raw string

// List is a bracketed, comma separated list of sub-messages.
type List []*Message

func (v Int) isZero() bool { return v == 0 }
func (v Int) appendTo(b []byte) []byte {
	return strconv.AppendInt(b, int64(v), 10)
}

func (v Float) isZero() bool { return v == 0 || math.IsNaN(float64(v)) }
func (v Float) appendTo(b []byte) []byte {
	return strconv.AppendFloat(b, float64(v), 'f', -1, 64)
}

func (v Flag) isZero() bool { return !bool(v) }
func (v Flag) appendTo(b []byte) []byte {
	if v {
		return append(b, '1')
	}
	return append(b, '0')
}

func (v Text) isZero() bool              { return v == "" }
func (v Text) appendTo(b []byte) []byte { return append(b, v...) }

func (v Quoted) isZero() bool { return v == "" }
func (v Quoted) appendTo(b []byte) []byte {
	b = append(b, '"')
	b = appendEscaped(b, string(v))
	return append(b, '"')
}

func (v Raw) isZero() bool { return v == "" }
func (v Raw) appendTo(b []byte) []byte {
	b = append(b, '`')
	b = append(b, v...)
	return append(b, '`')
}

func (v List) isZero() bool { return len(v) == 0 }
func (v List) appendTo(b []byte) []byte {
	b = append(b, '[')
	for i, m := range v {
		if i > 0 {
			b = append(b, ',')
		}
		b = m.AppendTo(b)
	}
	return append(b, ']')
}

// RawSafe converts caller text into a Raw value, replacing backticks so the
// literal cannot end early.
func RawSafe(s string) Raw {
	return Raw(strings.ReplaceAll(s, "`", "'"))
}

// Escape returns s with backslash and double quote escaped.
func Escape(s string) string {
	return string(appendEscaped(nil, s))
}

func appendEscaped(b []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b = append(b, '\\', c)
		default:
			b = append(b, c)
		}
	}
	return b
}

// Field is one key/value pair of a Message.
type Field struct {
	Key   string
	Value Value
}

// Message is a tagged set of fields.
type Message struct {
	Tag    string
	Fields []Field
}

// New returns an empty message with the given tag.
func New(tag string) *Message {
	return &Message{Tag: tag}
}

// Add appends the field unless v is nil or the zero value of its kind.
func (m *Message) Add(key string, v Value) *Message {
	if v == nil || v.isZero() {
		return m
	}
	m.Fields = append(m.Fields, Field{Key: key, Value: v})
	return m
}

// Put appends the field even when v is a zero value.
func (m *Message) Put(key string, v Value) *Message {
	if v == nil {
		return m
	}
	m.Fields = append(m.Fields, Field{Key: key, Value: v})
	return m
}

// AppendTo appends the encoded message to b.
func (m *Message) AppendTo(b []byte) []byte {
	b = append(b, m.Tag...)
	b = append(b, '{')
	for i, f := range m.Fields {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, f.Key...)
		b = append(b, '=')
		b = f.Value.appendTo(b)
	}
	return append(b, '}')
}

// String returns the wire encoding of the message.
func (m *Message) String() string {
	return string(m.AppendTo(make([]byte, 0, 64)))
}

// Has reports whether the message carries key.
func (m *Message) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Get returns the value stored under key.
func (m *Message) Get(key string) (Value, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
