package dom

import "fmt"

// Document owns the element tree, the id index, the focused element and
// the style sheet rules.
type Document struct {
	body   *Element
	byID   map[string]*Element
	active *Element
	rules  map[string]string
	order  []string

	// Viewport is the window inner size.
	Viewport Rect
}

// NewDocument returns a document with an empty body.
func NewDocument() *Document {
	d := &Document{
		byID:  make(map[string]*Element),
		rules: make(map[string]string),
	}
	d.body = d.CreateElement("body")
	return d
}

// Parse builds a document whose body holds the given HTML.
func Parse(src string) (*Document, error) {
	d := NewDocument()
	if err := d.body.SetInnerHTML(src); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return d, nil
}

// Body returns the body element.
func (d *Document) Body() *Element { return d.body }

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag string) *Element {
	e := &Element{
		tag:           tag,
		attrs:         make(map[string]string),
		style:         make(map[string]string),
		doc:           d,
		SelectedIndex: -1,
	}
	if tag == "audio" || tag == "video" {
		e.Media = NewMedia()
	}
	return e
}

// ElementByID returns the connected element with the given id, or nil.
func (d *Document) ElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	return d.byID[id]
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *Element { return d.active }

// SetActiveElement moves focus and returns the previously focused element.
func (d *Document) SetActiveElement(e *Element) *Element {
	prev := d.active
	d.active = e
	return prev
}

// Walk visits connected elements in document order. Returning false from
// fn skips the element's subtree.
func (d *Document) Walk(fn func(*Element) bool) {
	var visit func(*Element)
	visit = func(e *Element) {
		if !fn(e) {
			return
		}
		for _, c := range e.children {
			visit(c)
		}
	}
	visit(d.body)
}

// Views returns every element carrying the view class, in document order.
func (d *Document) Views() []*Element {
	var views []*Element
	d.Walk(func(e *Element) bool {
		if e.HasClass(ViewClass) {
			views = append(views, e)
		}
		return true
	})
	return views
}

// SetRule replaces the style sheet rule for selector.
func (d *Document) SetRule(selector, text string) {
	if _, ok := d.rules[selector]; !ok {
		d.order = append(d.order, selector)
	}
	d.rules[selector] = text
}

// Rule returns the style sheet rule for selector.
func (d *Document) Rule(selector string) (string, bool) {
	r, ok := d.rules[selector]
	return r, ok
}

// Rules returns the selectors in insertion order.
func (d *Document) Rules() []string {
	return append([]string(nil), d.order...)
}

func (d *Document) index(e *Element) {
	d.byID[e.id] = e
}

func (d *Document) unindex(e *Element) {
	if d.byID[e.id] == e {
		delete(d.byID, e.id)
	}
}

func (d *Document) attach(e *Element) {
	if e.id != "" {
		d.index(e)
	}
	for _, c := range e.children {
		d.attach(c)
	}
}

func (d *Document) detach(e *Element) {
	if e.id != "" {
		d.unindex(e)
	}
	if d.active == e {
		d.active = nil
	}
	for _, c := range e.children {
		d.detach(c)
	}
}
