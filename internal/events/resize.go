package events

import (
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// DragSession is an active drag-resize of a view. It lives from the
// mouse-down on a resize handle until the matching mouse-up.
type DragSession struct {
	// Target is the view being resized, the handle's parent.
	Target *dom.Element
	// MX and MY scale pointer motion into size change per axis; 0 locks
	// the axis, -1 grows the view when the pointer moves left or up.
	MX, MY float64

	StartX      float64
	StartY      float64
	StartWidth  float64
	StartHeight float64
}

// StartResize begins resizing the parent of handle. It returns nil when
// the handle has no parent.
func (t *Translator) StartResize(handle *dom.Element, mx, my float64, ev *MouseEvent) *DragSession {
	view := handle.Parent()
	if view == nil {
		return nil
	}
	ev.StopPropagation()
	ev.PreventDefault()
	return &DragSession{
		Target:      view,
		MX:          mx,
		MY:          my,
		StartX:      ev.ClientX,
		StartY:      ev.ClientY,
		StartWidth:  view.Offset.Width,
		StartHeight: view.Offset.Height,
	}
}

// ResizeMove applies pointer motion to the dragged view. Sizes never drop
// below one pixel.
func (t *Translator) ResizeMove(s *DragSession, ev *MouseEvent) {
	view := s.Target
	if s.MX != 0 {
		w := s.StartWidth + (ev.ClientX-s.StartX)*s.MX
		if w <= 0 {
			w = 1
		}
		view.SetStyle("width", formatPx(w))
		t.send(t.elementMessage("widthChanged", view).Put("width", protocol.Text(view.Style("width"))))
	}
	if s.MY != 0 {
		h := s.StartHeight + (ev.ClientY-s.StartY)*s.MY
		if h <= 0 {
			h = 1
		}
		view.SetStyle("height", formatPx(h))
		t.send(t.elementMessage("heightChanged", view).Put("height", protocol.Text(view.Style("height"))))
	}
	ev.StopPropagation()
	ev.PreventDefault()
	t.Scan()
}

// ResizeEnd finishes the drag.
func (t *Translator) ResizeEnd(s *DragSession, ev *MouseEvent) {
	ev.StopPropagation()
}
