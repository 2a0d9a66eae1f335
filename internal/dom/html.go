package dom

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9:\-_.]+$`)

// HandlerPattern matches the only form of inline handler that survives
// sanitizing: a single call of a named function whose arguments are this,
// event, a short single quoted token or a number, e.g.
// keyDownEvent(this, event) or tabClickEvent('tabs', 2, event).
var HandlerPattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9]*)\(\s*((?:(?:this|event|'[\w\-]*'|-?[0-9]+(?:\.[0-9]+)?)\s*(?:,\s*(?:this|event|'[\w\-]*'|-?[0-9]+(?:\.[0-9]+)?)\s*)*)?)\)\s*;?\s*$`)

// HandlerAttrs lists the inline handler attributes the page dispatches.
var HandlerAttrs = []string{
	"onclick", "ondblclick", "oncontextmenu",
	"onmousedown", "onmouseup", "onmousemove", "onmouseover", "onmouseout",
	"onpointerdown", "onpointerup", "onpointermove", "onpointercancel", "onpointerover", "onpointerout",
	"ontouchstart", "ontouchend", "ontouchmove", "ontouchcancel",
	"onkeydown", "onkeyup", "onfocus", "onblur", "onscroll", "oninput", "onchange",
	"ontransitionstart", "ontransitionrun", "ontransitionend", "ontransitioncancel",
	"onanimationstart", "onanimationend", "onanimationcancel", "onanimationiteration",
	"onabort", "oncanplay", "oncanplaythrough", "ondurationchange", "onemptied", "onended",
	"onerror", "onloadeddata", "onloadedmetadata", "onloadstart", "onpause", "onplay",
	"onplaying", "onprogress", "onratechange", "onseeked", "onseeking", "onstalled",
	"onsuspend", "ontimeupdate", "onvolumechange", "onwaiting",
}

// contentPolicy keeps the structure the controller renders (ids, classes,
// data-* markers, inline styles, form and media attributes, handler calls
// matching HandlerPattern) and drops scripts, any other inline code and
// javascript: URLs.
var contentPolicy = newContentPolicy()

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("id").Matching(idPattern).Globally()
	p.AllowAttrs("class", "style", "tabindex", "role", "title", "dir", "hidden").Globally()
	p.AllowElements("div", "span", "section", "label", "button", "select", "option", "textarea", "form", "fieldset", "svg", "canvas")
	p.AllowAttrs("type", "name", "value", "placeholder", "disabled", "readonly", "checked", "selected", "multiple", "accept", "min", "max", "step").
		OnElements("input", "select", "option", "textarea", "button")
	p.AllowElements("input", "audio", "video", "source", "track")
	p.AllowAttrs("src", "controls", "autoplay", "loop", "muted", "poster", "preload").OnElements("audio", "video", "source", "track")
	p.AllowAttrs(HandlerAttrs...).Matching(HandlerPattern).Globally()
	return p
}

// Sanitize filters controller supplied markup through the content policy.
func Sanitize(src string) string {
	return contentPolicy.Sanitize(src)
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// SetInnerHTML replaces the children of e with the sanitized markup.
func (e *Element) SetInnerHTML(src string) error {
	nodes, err := e.parseFragment(src)
	if err != nil {
		return err
	}
	e.RemoveChildren()
	e.adopt(nodes)
	return nil
}

// AppendInnerHTML appends the sanitized markup after the existing children.
func (e *Element) AppendInnerHTML(src string) error {
	nodes, err := e.parseFragment(src)
	if err != nil {
		return err
	}
	e.adopt(nodes)
	return nil
}

func (e *Element) parseFragment(src string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(Sanitize(src)), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing html fragment: %w", err)
	}
	return nodes, nil
}

func (e *Element) adopt(nodes []*html.Node) {
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			e.text += n.Data
		case html.ElementNode:
			child := e.doc.CreateElement(n.Data)
			e.AppendChild(child)
			for _, a := range n.Attr {
				child.SetAttr(a.Key, a.Val)
				if a.Key == "disabled" {
					child.Disabled = true
				}
			}
			var sub []*html.Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				sub = append(sub, c)
			}
			child.adopt(sub)
			if child.tag == "select" {
				child.SelectedIndex = selectedOption(child)
			}
		}
	}
}

func selectedOption(sel *Element) int {
	first := -1
	for i, o := range sel.children {
		if o.tag != "option" {
			continue
		}
		if first < 0 {
			first = i
		}
		if o.HasAttr("selected") {
			return i
		}
	}
	return first
}

// InnerHTML renders the children of e. Text held by an element is written
// before its children.
func (e *Element) InnerHTML() string {
	var b strings.Builder
	b.WriteString(html.EscapeString(e.text))
	for _, c := range e.children {
		c.render(&b)
	}
	return b.String()
}

// OuterHTML renders e and its subtree.
func (e *Element) OuterHTML() string {
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e *Element) render(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.tag)
	for _, name := range e.attrNames() {
		v, _ := e.Attr(name)
		fmt.Fprintf(b, ` %s="%s"`, name, html.EscapeString(v))
	}
	b.WriteByte('>')
	if voidElements[e.tag] {
		return
	}
	b.WriteString(e.InnerHTML())
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}

func (e *Element) attrNames() []string {
	var names []string
	for _, n := range []string{"id", "class", "style"} {
		if e.HasAttr(n) {
			names = append(names, n)
		}
	}
	rest := make([]string, 0, len(e.attrs))
	for n := range e.attrs {
		rest = append(rest, n)
	}
	sort.Strings(rest)
	return append(names, rest...)
}
