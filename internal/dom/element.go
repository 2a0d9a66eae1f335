// Package dom is the headless page: a tree of elements with attributes,
// classes, inline styles and the layout metrics a browser would expose
// (bounding rect, offsets, scroll position and extents).
//
// Layout is not computed. Hosts supply geometry with SetLayout, or it is
// derived from inline px lengths (left, top, width, height) whenever the
// style changes. display:none on an element or any ancestor collapses its
// bounding rect to zero.
//
// A Document is not safe for concurrent use; the bridge serializes every
// reaction that touches it.
package dom

import (
	"sort"
	"strconv"
	"strings"
)

// Class and attribute names shared with the controller.
const (
	ViewClass    = "ruiView"
	NoResizeAttr = "data-noresize"
)

// Rect is an axis aligned box in CSS pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right returns Left+Width.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns Top+Height.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the box has no rendered area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Scroll holds the scroll position and extents of an element.
type Scroll struct {
	X            float64
	Y            float64
	Width        float64
	Height       float64
	ClientWidth  float64
	ClientHeight float64
}

// Overflows reports whether the content is larger than the client box.
func (s Scroll) Overflows() bool {
	return s.Width > s.ClientWidth || s.Height > s.ClientHeight
}

// Element is one node of the page.
type Element struct {
	tag      string
	id       string
	classes  []string
	attrs    map[string]string
	style    map[string]string
	text     string
	parent   *Element
	children []*Element
	doc      *Document

	// Bounds is the bounding client rect.
	Bounds Rect
	// Offset is offsetLeft/Top relative to the parent and offsetWidth/Height.
	Offset Rect
	Scroll Scroll

	// Form and media state.
	Value         string
	SelectedIndex int
	Disabled      bool
	Files         []File
	Media         *Media
}

// Tag returns the lower case tag name.
func (e *Element) Tag() string { return e.tag }

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child elements in document order.
func (e *Element) Children() []*Element { return e.children }

// Text returns the text directly held by the element.
func (e *Element) Text() string { return e.text }

// SetText replaces the element text.
func (e *Element) SetText(s string) { e.text = s }

// Attr returns an attribute. Names are case insensitive. id, class and
// style are synthesized from the element state.
func (e *Element) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	switch name {
	case "id":
		return e.id, e.id != ""
	case "class":
		return e.ClassName(), len(e.classes) > 0
	case "style":
		return e.StyleText(), len(e.style) > 0
	}
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Truthy reports whether the attribute is present with a value other
// than "", "0" or "false".
func (e *Element) Truthy(name string) bool {
	v, ok := e.Attr(name)
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "", "0", "false":
		return false
	}
	return true
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	name = strings.ToLower(name)
	switch name {
	case "id":
		e.setID(value)
	case "class":
		e.SetClassName(value)
	case "style":
		e.SetStyleText(value)
	case "value":
		e.Value = value
		e.attrs[name] = value
	default:
		e.attrs[name] = value
	}
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	name = strings.ToLower(name)
	switch name {
	case "id":
		e.setID("")
	case "class":
		e.classes = nil
	case "style":
		e.style = map[string]string{}
	default:
		delete(e.attrs, name)
	}
}

func (e *Element) setID(id string) {
	if e.id == id {
		return
	}
	connected := e.Connected()
	if connected && e.id != "" {
		e.doc.unindex(e)
	}
	e.id = id
	if connected && id != "" {
		e.doc.index(e)
	}
}

// ClassName returns the space separated class list.
func (e *Element) ClassName() string { return strings.Join(e.classes, " ") }

// SetClassName replaces the class list.
func (e *Element) SetClassName(s string) { e.classes = strings.Fields(s) }

// HasClass reports whether the class is present.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.classes {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds classes that are not yet present.
func (e *Element) AddClass(names ...string) {
	for _, n := range names {
		if n != "" && !e.HasClass(n) {
			e.classes = append(e.classes, n)
		}
	}
}

// RemoveClass removes the given classes.
func (e *Element) RemoveClass(names ...string) {
	kept := e.classes[:0]
	for _, c := range e.classes {
		drop := false
		for _, n := range names {
			if c == n {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	e.classes = kept
}

// Style returns an inline style property.
func (e *Element) Style(prop string) string { return e.style[prop] }

// SetStyle sets one inline style property. An empty value removes it.
func (e *Element) SetStyle(prop, value string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	if value == "" {
		delete(e.style, prop)
	} else {
		e.style[prop] = value
	}
	e.applyStyleLayout(prop, value)
}

// SetStyleText replaces the whole inline style with a declaration list
// such as "width: 10px; display: none".
func (e *Element) SetStyleText(text string) {
	e.style = map[string]string{}
	for _, decl := range strings.Split(text, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		e.SetStyle(name, value)
	}
}

// StyleText renders the inline style with properties in name order.
func (e *Element) StyleText() string {
	names := make([]string, 0, len(e.style))
	for n := range e.style {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(n)
		b.WriteString(": ")
		b.WriteString(e.style[n])
	}
	return b.String()
}

// applyStyleLayout mirrors px lengths into the layout metrics.
func (e *Element) applyStyleLayout(prop, value string) {
	v, ok := parsePx(value)
	if !ok {
		return
	}
	switch prop {
	case "width":
		e.Offset.Width = v
		e.Bounds.Width = v
		e.Scroll.ClientWidth = v
		if e.Scroll.Width < v {
			e.Scroll.Width = v
		}
	case "height":
		e.Offset.Height = v
		e.Bounds.Height = v
		e.Scroll.ClientHeight = v
		if e.Scroll.Height < v {
			e.Scroll.Height = v
		}
	case "left":
		e.Offset.Left = v
		e.moveTo(e.parentBounds().Left+v, e.Bounds.Top)
	case "top":
		e.Offset.Top = v
		e.moveTo(e.Bounds.Left, e.parentBounds().Top+v)
	}
}

// moveTo places the element's client rect at left, top and shifts every
// descendant by the same amount.
func (e *Element) moveTo(left, top float64) {
	dx, dy := left-e.Bounds.Left, top-e.Bounds.Top
	e.Bounds.Left, e.Bounds.Top = left, top
	if dx != 0 || dy != 0 {
		for _, c := range e.children {
			c.shift(dx, dy)
		}
	}
}

func (e *Element) shift(dx, dy float64) {
	e.Bounds.Left += dx
	e.Bounds.Top += dy
	for _, c := range e.children {
		c.shift(dx, dy)
	}
}

func (e *Element) parentBounds() Rect {
	if e.parent == nil {
		return Rect{}
	}
	return e.parent.Bounds
}

func parsePx(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetLayout places the element: bounds is the client rect, the offset box
// is derived relative to the parent's bounds. Descendants move with it.
// Client size and scroll extents grow to at least the box size.
func (e *Element) SetLayout(bounds Rect) {
	p := e.parentBounds()
	e.moveTo(bounds.Left, bounds.Top)
	e.Bounds = bounds
	e.Offset = Rect{
		Left:   bounds.Left - p.Left,
		Top:    bounds.Top - p.Top,
		Width:  bounds.Width,
		Height: bounds.Height,
	}
	e.Scroll.ClientWidth = bounds.Width
	e.Scroll.ClientHeight = bounds.Height
	if e.Scroll.Width < bounds.Width {
		e.Scroll.Width = bounds.Width
	}
	if e.Scroll.Height < bounds.Height {
		e.Scroll.Height = bounds.Height
	}
}

// Hidden reports whether the element or an ancestor has display:none.
func (e *Element) Hidden() bool {
	for el := e; el != nil; el = el.parent {
		if el.style["display"] == "none" {
			return true
		}
	}
	return false
}

// BoundingRect returns the rendered client rect, zero when hidden.
func (e *Element) BoundingRect() Rect {
	if e.Hidden() {
		return Rect{}
	}
	return e.Bounds
}

// ScrollTo moves the scroll position, clamped to the scrollable range.
func (e *Element) ScrollTo(x, y float64) {
	e.Scroll.X = clamp(x, e.Scroll.Width-e.Scroll.ClientWidth)
	e.Scroll.Y = clamp(y, e.Scroll.Height-e.Scroll.ClientHeight)
}

func clamp(v, max float64) float64 {
	if max < 0 {
		max = 0
	}
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// IsFormControl reports whether the element has a native disabled property.
func (e *Element) IsFormControl() bool {
	switch e.tag {
	case "input", "select", "textarea", "button", "fieldset", "option", "optgroup":
		return true
	}
	return false
}

// Connected reports whether the element is attached to its document body.
func (e *Element) Connected() bool {
	if e.doc == nil {
		return false
	}
	for el := e; el != nil; el = el.parent {
		if el == e.doc.body {
			return true
		}
	}
	return false
}

// Index returns the position of the element among its siblings, or -1.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	for i, c := range e.parent.children {
		if c == e {
			return i
		}
	}
	return -1
}

// AppendChild attaches child as the last child of e.
func (e *Element) AppendChild(child *Element) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	if e.Connected() {
		e.doc.attach(child)
	}
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(child *Element) {
	i := child.Index()
	if child.parent != e || i < 0 {
		return
	}
	if e.Connected() {
		e.doc.detach(child)
	}
	e.children = append(e.children[:i], e.children[i+1:]...)
	child.parent = nil
}

// RemoveChildren detaches every child.
func (e *Element) RemoveChildren() {
	for len(e.children) > 0 {
		e.RemoveChild(e.children[len(e.children)-1])
	}
	e.text = ""
}
