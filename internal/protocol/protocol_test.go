package protocol

import (
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func TestEncodeOmitsZeroValues(t *testing.T) {
	m := New("key-down-event").
		Put("session", Text("7")).
		Add("timeStamp", Float(0)).
		Add("key", Quoted("")).
		Add("repeat", Flag(false)).
		Add("button", Int(0)).
		Add("touches", List(nil)).
		Add("data", Raw(""))

	if got, want := m.String(), "key-down-event{session=7}"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestEncodeIncludesPresentValues(t *testing.T) {
	m := New("key-down-event").
		Put("session", Text("7")).
		Add("timeStamp", Float(1234.5)).
		Add("key", Quoted("a")).
		Add("repeat", Flag(true)).
		Add("button", Int(2))

	want := `key-down-event{session=7,timeStamp=1234.5,key="a",repeat=1,button=2}`
	if got := m.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestPutKeepsZeroValues(t *testing.T) {
	m := New("view").Put("x", Float(0)).Put("touch", Flag(false))
	if got, want := m.String(), "view{x=0,touch=0}"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestQuotedEscaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\dir`, `"C:\\dir"`},
		{`\"`, `"\\\""`},
	}
	for _, tt := range tests {
		got := New("t").Add("v", Quoted(tt.in)).String()
		want := "t{v=" + tt.want + "}"
		if got != want {
			t.Errorf("Quoted(%q) encoded as %q, want %q", tt.in, got, want)
		}
	}
}

func TestFloatFormatting(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{12.5, "12.5"},
		{-3, "-3"},
		{0.25, "0.25"},
	}
	for _, tt := range tests {
		if got := New("t").Add("v", Float(tt.in)).String(); got != "t{v="+tt.want+"}" {
			t.Errorf("Float(%v) = %q", tt.in, got)
		}
	}
}

func TestListEncoding(t *testing.T) {
	m := New("resize").Put("session", Text("1")).Add("views", List{
		New("view").Put("id", Text("a")).Put("x", Float(1)),
		New("view").Put("id", Text("b")).Put("x", Float(2)),
	})
	want := "resize{session=1,views=[view{id=a,x=1},view{id=b,x=2}]}"
	if got := m.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRawSafe(t *testing.T) {
	got := New("e").Add("error", RawSafe("bad `thing`")).String()
	if got != "e{error=`bad 'thing'`}" {
		t.Fatalf("got %q", got)
	}
	if strings.Count(got, "`") != 2 {
		t.Fatalf("raw literal must hold exactly two delimiters: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

func TestParseValueKinds(t *testing.T) {
	m, err := parseOne("cmd{id=view1,text=\"a \\\"b\\\" \\\\ c\",data=`raw \"x\"`,items=[it{n=1},it{n=2}]}")
	if err != nil {
		t.Fatalf("parseOne: %v", err)
	}
	if m.Tag != "cmd" {
		t.Fatalf("Tag = %q", m.Tag)
	}
	if v, _ := m.StringField("id"); v != "view1" {
		t.Errorf("id = %q", v)
	}
	if v, _ := m.StringField("text"); v != `a "b" \ c` {
		t.Errorf("text = %q", v)
	}
	if v, _ := m.StringField("data"); v != `raw "x"` {
		t.Errorf("data = %q", v)
	}
	items := m.ListField("items")
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if n, err := items[1].IntField("n"); err != nil || n != 2 {
		t.Errorf("items[1].n = %d, %v", n, err)
	}
}

func TestParseMultipleMessages(t *testing.T) {
	msgs, err := Parse("a{x=1}; b{}\n c{y=\"2\"}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[1].Tag != "b" || len(msgs[1].Fields) != 0 {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestParseRoundTripsEncodedMessage(t *testing.T) {
	src := New("textChanged").
		Put("session", Text("3")).
		Put("id", Text("edit")).
		Add("text", Quoted(`quote " and \ slash`))
	m, err := parseOne(src.String())
	if err != nil {
		t.Fatalf("parseOne: %v", err)
	}
	if v, _ := m.StringField("text"); v != `quote " and \ slash` {
		t.Fatalf("text = %q", v)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"noBrace",
		"a{x=1",
		`a{x="open}`,
		"a{x=`open}",
		"a{=1}",
		"a{x=[b{}}",
		"{x=1}",
	} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		}
	}
}

func TestFieldAccessors(t *testing.T) {
	m, err := parseOne(`f{n=12,w=10.5px,on=1,off=0,bad=maybe}`)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := m.IntField("n"); err != nil || n != 12 {
		t.Errorf("IntField = %d, %v", n, err)
	}
	if w, err := m.FloatField("w"); err != nil || w != 10.5 {
		t.Errorf("FloatField = %v, %v", w, err)
	}
	if on, _ := m.BoolField("on"); !on {
		t.Error("on should be true")
	}
	if off, _ := m.BoolField("off"); off {
		t.Error("off should be false")
	}
	if missing, err := m.BoolField("missing"); missing || err != nil {
		t.Errorf("missing flag = %v, %v", missing, err)
	}
	if _, err := m.BoolField("bad"); err == nil {
		t.Error("expected error for invalid flag")
	}
	if _, err := m.IntField("missing"); err == nil {
		t.Error("expected error for missing int")
	}
}

// parseOne decodes exactly one message.
func parseOne(text string) (*Message, error) {
	msgs, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if len(msgs) != 1 {
		return nil, fmt.Errorf("expected one message, got %d", len(msgs))
	}
	return msgs[0], nil
}
