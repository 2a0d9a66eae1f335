package events

import (
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/navigator"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Event
	Key string
	// KeyCode is the legacy key code, consulted when Key is empty.
	KeyCode int
	Code    string
	Repeat  bool
	Modifiers
}

// key returns the key value, falling back to the legacy key code.
func (ev *KeyEvent) key() string {
	if ev.Key != "" {
		return ev.Key
	}
	return navigator.KeyForCode(ev.KeyCode)
}

// enterOrSpace reports whether the event activates a control.
func (ev *KeyEvent) enterOrSpace() bool {
	switch ev.key() {
	case " ", "Enter":
		return true
	}
	return false
}

// Key tags.
const (
	KeyDown = "key-down-event"
	KeyUp   = "key-up-event"
)

// Key reports a key-down-event or key-up-event.
func (t *Translator) Key(tag string, el *dom.Element, ev *KeyEvent) {
	ev.StopPropagation()
	msg := t.elementMessage(tag, el).
		Add("timeStamp", protocol.Float(ev.TimeStamp)).
		Add("key", protocol.Quoted(ev.Key)).
		Add("code", protocol.Quoted(ev.Code)).
		Add("repeat", protocol.Flag(ev.Repeat))
	ev.Modifiers.addTo(msg)
	t.send(msg)
}

// MouseEvent is a mouse event. Coordinates are CSS pixels.
type MouseEvent struct {
	Event
	Button  int
	Buttons int
	ClientX float64
	ClientY float64
	ScreenX float64
	ScreenY float64
	Modifiers
}

// Mouse tags.
const (
	MouseDown   = "mouse-down"
	MouseUp     = "mouse-up"
	MouseMove   = "mouse-move"
	MouseOver   = "mouse-over"
	MouseOut    = "mouse-out"
	Click       = "click-event"
	DoubleClick = "double-click-event"
	ContextMenu = "context-menu-event"
)

// Mouse reports a mouse event. Clicks, double clicks and context menu
// requests also suppress the default action.
func (t *Translator) Mouse(tag string, el *dom.Element, ev *MouseEvent) {
	ev.StopPropagation()
	msg := t.elementMessage(tag, el)
	mouseData(msg, el, ev)
	t.send(msg)
	switch tag {
	case Click, DoubleClick, ContextMenu:
		ev.PreventDefault()
	}
}

func mouseData(msg *protocol.Message, el *dom.Element, ev *MouseEvent) {
	msg.Add("timeStamp", protocol.Float(ev.TimeStamp)).
		Add("button", protocol.Int(ev.Button)).
		Add("buttons", protocol.Int(ev.Buttons))
	x, y := relativePoint(el, ev.ClientX, ev.ClientY)
	if ev.ClientX != 0 {
		msg.Put("x", protocol.Float(x)).Put("clientX", protocol.Float(ev.ClientX))
	}
	if ev.ClientY != 0 {
		msg.Put("y", protocol.Float(y)).Put("clientY", protocol.Float(ev.ClientY))
	}
	msg.Add("screenX", protocol.Float(ev.ScreenX)).
		Add("screenY", protocol.Float(ev.ScreenY))
	ev.Modifiers.addTo(msg)
}

// PointerEvent is a pointer event.
type PointerEvent struct {
	MouseEvent
	PointerID          int
	Width              float64
	Height             float64
	Pressure           float64
	TangentialPressure float64
	TiltX              float64
	TiltY              float64
	Twist              float64
	PointerType        string
	IsPrimary          bool
}

// Pointer tags.
const (
	PointerDown   = "pointer-down"
	PointerUp     = "pointer-up"
	PointerMove   = "pointer-move"
	PointerCancel = "pointer-cancel"
	PointerOver   = "pointer-over"
	PointerOut    = "pointer-out"
)

// Pointer reports a pointer event.
func (t *Translator) Pointer(tag string, el *dom.Element, ev *PointerEvent) {
	ev.StopPropagation()
	msg := t.elementMessage(tag, el)
	mouseData(msg, el, &ev.MouseEvent)
	msg.Add("pointerId", protocol.Int(ev.PointerID)).
		Add("width", protocol.Float(ev.Width)).
		Add("height", protocol.Float(ev.Height)).
		Add("pressure", protocol.Float(ev.Pressure)).
		Add("tangentialPressure", protocol.Float(ev.TangentialPressure)).
		Add("tiltX", protocol.Float(ev.TiltX)).
		Add("tiltY", protocol.Float(ev.TiltY)).
		Add("twist", protocol.Float(ev.Twist)).
		Add("pointerType", protocol.Text(ev.PointerType)).
		Add("isPrimary", protocol.Flag(ev.IsPrimary))
	t.send(msg)
}

// Touch is one contact point of a touch event.
type Touch struct {
	Identifier    int
	ClientX       float64
	ClientY       float64
	ScreenX       float64
	ScreenY       float64
	RadiusX       float64
	RadiusY       float64
	RotationAngle float64
	Force         float64
}

// TouchEvent is a touch event with its active contact points.
type TouchEvent struct {
	Event
	Touches []Touch
	Modifiers
}

// Touch tags.
const (
	TouchStart  = "touch-start"
	TouchEnd    = "touch-end"
	TouchMove   = "touch-move"
	TouchCancel = "touch-cancel"
)

// Touch reports a touch event with one sub-message per active touch.
func (t *Translator) Touch(tag string, el *dom.Element, ev *TouchEvent) {
	ev.StopPropagation()
	msg := t.elementMessage(tag, el).
		Add("timeStamp", protocol.Float(ev.TimeStamp))
	var touches protocol.List
	for _, tc := range ev.Touches {
		x, y := relativePoint(el, tc.ClientX, tc.ClientY)
		touches = append(touches, protocol.New("touch").
			Put("identifier", protocol.Int(tc.Identifier)).
			Put("x", protocol.Float(x)).
			Put("y", protocol.Float(y)).
			Put("clientX", protocol.Float(tc.ClientX)).
			Put("clientY", protocol.Float(tc.ClientY)).
			Put("screenX", protocol.Float(tc.ScreenX)).
			Put("screenY", protocol.Float(tc.ScreenY)).
			Put("radiusX", protocol.Float(tc.RadiusX)).
			Put("radiusY", protocol.Float(tc.RadiusY)).
			Put("rotationAngle", protocol.Float(tc.RotationAngle)).
			Put("force", protocol.Float(tc.Force)))
	}
	msg.Add("touches", touches)
	ev.Modifiers.addTo(msg)
	t.send(msg)
}
