package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/events"
)

// Event is any UI event the page dispatches: *events.Event,
// *events.KeyEvent, *events.MouseEvent, *events.PointerEvent,
// *events.TouchEvent, *events.TransitionEvent or *events.AnimationEvent.
type Event interface {
	Base() *events.Event
}

// call is one parsed inline handler invocation.
type call struct {
	name string
	this *dom.Element
	args []string
	ev   Event
}

func (c *call) str(i int) (string, error) {
	if i >= len(c.args) {
		return "", fmt.Errorf("%s: missing argument %d", c.name, i+1)
	}
	return strings.Trim(c.args[i], "'"), nil
}

func (c *call) num(i int) (float64, error) {
	s, err := c.str(i)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d: %w", c.name, i+1, err)
	}
	return f, nil
}

func (c *call) key() (*events.KeyEvent, error) {
	if ev, ok := c.ev.(*events.KeyEvent); ok {
		return ev, nil
	}
	return nil, fmt.Errorf("%s: expected a key event, got %T", c.name, c.ev)
}

func (c *call) mouse() (*events.MouseEvent, error) {
	switch ev := c.ev.(type) {
	case *events.MouseEvent:
		return ev, nil
	case *events.PointerEvent:
		return &ev.MouseEvent, nil
	}
	return nil, fmt.Errorf("%s: expected a mouse event, got %T", c.name, c.ev)
}

type handlerFunc func(p *Page, c *call) error

// handlers maps the function names allowed in inline handler attributes
// to page reactions. Any other name is ignored.
var handlers = map[string]handlerFunc{
	"keyDownEvent": keyHandler(events.KeyDown),
	"keyUpEvent":   keyHandler(events.KeyUp),

	"mouseDownEvent":   mouseHandler(events.MouseDown),
	"mouseUpEvent":     mouseHandler(events.MouseUp),
	"mouseMoveEvent":   mouseHandler(events.MouseMove),
	"mouseOverEvent":   mouseHandler(events.MouseOver),
	"mouseOutEvent":    mouseHandler(events.MouseOut),
	"clickEvent":       mouseHandler(events.Click),
	"doubleClickEvent": mouseHandler(events.DoubleClick),
	"contextMenuEvent": mouseHandler(events.ContextMenu),

	"pointerDownEvent":   pointerHandler(events.PointerDown),
	"pointerUpEvent":     pointerHandler(events.PointerUp),
	"pointerMoveEvent":   pointerHandler(events.PointerMove),
	"pointerCancelEvent": pointerHandler(events.PointerCancel),
	"pointerOverEvent":   pointerHandler(events.PointerOver),
	"pointerOutEvent":    pointerHandler(events.PointerOut),

	"touchStartEvent":  touchHandler(events.TouchStart),
	"touchEndEvent":    touchHandler(events.TouchEnd),
	"touchMoveEvent":   touchHandler(events.TouchMove),
	"touchCancelEvent": touchHandler(events.TouchCancel),

	"transitionStartEvent":    transitionHandler(events.TransitionStart),
	"transitionRunEvent":      transitionHandler(events.TransitionRun),
	"transitionEndEvent":      transitionHandler(events.TransitionEnd),
	"transitionCancelEvent":   transitionHandler(events.TransitionCancel),
	"animationStartEvent":     animationHandler(events.AnimationStart),
	"animationEndEvent":       animationHandler(events.AnimationEnd),
	"animationCancelEvent":    animationHandler(events.AnimationCancel),
	"animationIterationEvent": animationHandler(events.AnimationIteration),

	"focusEvent": func(p *Page, c *call) error {
		p.events.Focus(c.this, c.ev.Base())
		return nil
	},
	"blurEvent": func(p *Page, c *call) error {
		p.events.Blur(c.this, c.ev.Base())
		return nil
	},
	"scrollEvent": func(p *Page, c *call) error {
		p.events.Scroll(c.this)
		return nil
	},
	"editViewInputEvent": func(p *Page, c *call) error {
		p.events.TextChanged(c.this)
		return nil
	},
	"fileSelectedEvent": func(p *Page, c *call) error {
		p.events.FileSelected(c.this)
		return nil
	},
	"dropDownListEvent": func(p *Page, c *call) error {
		p.events.DropDownChanged(c.this, c.ev.Base())
		return nil
	},

	"tabClickEvent": func(p *Page, c *call) error {
		layout, n, err := tabArgs(c)
		if err != nil {
			return err
		}
		p.events.TabClick(layout, n, c.ev.Base())
		return nil
	},
	"tabKeyClickEvent": func(p *Page, c *call) error {
		layout, n, err := tabArgs(c)
		if err != nil {
			return err
		}
		ev, err := c.key()
		if err != nil {
			return err
		}
		p.events.TabKeyClick(layout, n, ev)
		return nil
	},

	"listItemClickEvent": func(p *Page, c *call) error {
		p.events.ListItemClick(c.this, c.ev.Base())
		return nil
	},
	"listViewKeyDownEvent": func(p *Page, c *call) error {
		ev, err := c.key()
		if err != nil {
			return err
		}
		p.events.ListKeyDown(c.this, ev)
		return nil
	},
	"listViewFocusEvent": func(p *Page, c *call) error {
		p.events.ListFocus(c.this)
		return nil
	},
	"listViewBlurEvent": func(p *Page, c *call) error {
		p.events.ListBlur(c.this)
		return nil
	},

	"radioButtonClickEvent": func(p *Page, c *call) error {
		p.events.RadioButtonClick(c.this, c.ev.Base())
		return nil
	},
	"radioButtonKeyClickEvent": func(p *Page, c *call) error {
		ev, err := c.key()
		if err != nil {
			return err
		}
		p.events.RadioButtonKeyClick(c.this, ev)
		return nil
	},

	"startResize": func(p *Page, c *call) error {
		mx, err := c.num(1)
		if err != nil {
			return err
		}
		my, err := c.num(2)
		if err != nil {
			return err
		}
		ev, err := c.mouse()
		if err != nil {
			return err
		}
		p.drag = p.events.StartResize(c.this, mx, my, ev)
		return nil
	},
	"stackTransitionEndEvent": func(p *Page, c *call) error {
		stack, err := c.str(0)
		if err != nil {
			return err
		}
		prop, err := c.str(1)
		if err != nil {
			return err
		}
		p.events.StackTransitionEnd(stack, prop, c.ev.Base())
		return nil
	},
	"clickOutsidePopup": func(p *Page, c *call) error {
		p.events.ClickOutsidePopup(c.ev.Base())
		return nil
	},
	"clickClosePopup": func(p *Page, c *call) error {
		p.events.ClickClosePopup(c.this, c.ev.Base())
		return nil
	},

	"playerEvent": func(p *Page, c *call) error {
		tag, err := c.str(1)
		if err != nil {
			return err
		}
		p.events.Player(c.this, tag)
		return nil
	},
	"playerTimeUpdatedEvent": func(p *Page, c *call) error {
		p.events.TimeUpdated(c.this)
		return nil
	},
	"playerDurationChangedEvent": func(p *Page, c *call) error {
		p.events.DurationChanged(c.this)
		return nil
	},
	"playerVolumeChangedEvent": func(p *Page, c *call) error {
		p.events.VolumeChanged(c.this)
		return nil
	},
	"playerRateChangedEvent": func(p *Page, c *call) error {
		p.events.RateChanged(c.this)
		return nil
	},
	"playerErrorEvent": func(p *Page, c *call) error {
		p.events.PlayerError(c.this)
		return nil
	},
}

func keyHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, err := c.key()
		if err != nil {
			return err
		}
		p.events.Key(tag, c.this, ev)
		return nil
	}
}

func mouseHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, err := c.mouse()
		if err != nil {
			return err
		}
		p.events.Mouse(tag, c.this, ev)
		return nil
	}
}

func pointerHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, ok := c.ev.(*events.PointerEvent)
		if !ok {
			return fmt.Errorf("%s: expected a pointer event, got %T", c.name, c.ev)
		}
		p.events.Pointer(tag, c.this, ev)
		return nil
	}
}

func touchHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, ok := c.ev.(*events.TouchEvent)
		if !ok {
			return fmt.Errorf("%s: expected a touch event, got %T", c.name, c.ev)
		}
		p.events.Touch(tag, c.this, ev)
		return nil
	}
}

func transitionHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, ok := c.ev.(*events.TransitionEvent)
		if !ok {
			return fmt.Errorf("%s: expected a transition event, got %T", c.name, c.ev)
		}
		p.events.Transition(tag, c.this, ev)
		return nil
	}
}

func animationHandler(tag string) handlerFunc {
	return func(p *Page, c *call) error {
		ev, ok := c.ev.(*events.AnimationEvent)
		if !ok {
			return fmt.Errorf("%s: expected an animation event, got %T", c.name, c.ev)
		}
		p.events.Animation(tag, c.this, ev)
		return nil
	}
}

func tabArgs(c *call) (string, int, error) {
	layout, err := c.str(0)
	if err != nil {
		return "", 0, err
	}
	n, err := c.num(1)
	if err != nil {
		return "", 0, err
	}
	return layout, int(n), nil
}

// parseHandler splits an inline handler attribute into the function name
// and its arguments.
func parseHandler(src string) (name string, args []string, ok bool) {
	m := dom.HandlerPattern.FindStringSubmatch(src)
	if m == nil {
		return "", nil, false
	}
	if strings.TrimSpace(m[2]) != "" {
		for _, a := range strings.Split(m[2], ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	return m[1], args, true
}

// Fire dispatches the UI event name ("click", "keydown", ...) raised on
// the element with the given id. The event bubbles from the target through
// its ancestors, running each element's on<name> handler, until a handler
// stops its propagation. While a drag-resize is active, mousemove resizes
// the dragged view and mouseup ends the drag.
func (p *Page) Fire(id, name string, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev == nil {
		ev = &events.Event{}
	}

	if p.drag != nil {
		if mev, ok := asMouse(ev); ok {
			switch name {
			case "mousemove":
				p.events.ResizeMove(p.drag, mev)
			case "mouseup":
				p.events.ResizeEnd(p.drag, mev)
				p.drag = nil
				return nil
			}
		}
	}

	target := p.doc.ElementByID(id)
	if target == nil {
		return fmt.Errorf("fire %s: no element %q", name, id)
	}
	return p.dispatch(target, name, ev)
}

// FireOn is Fire for an element already in hand.
func (p *Page) FireOn(target *dom.Element, name string, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev == nil {
		ev = &events.Event{}
	}
	return p.dispatch(target, name, ev)
}

func (p *Page) dispatch(target *dom.Element, name string, ev Event) error {
	attr := "on" + strings.ToLower(name)
	for el := target; el != nil && !ev.Base().Stopped(); el = el.Parent() {
		src, ok := el.Attr(attr)
		if !ok {
			continue
		}
		fn, args, ok := parseHandler(src)
		if !ok {
			p.logger.Warn("ignoring malformed handler", "id", el.ID(), "attr", attr)
			continue
		}
		h, ok := handlers[fn]
		if !ok {
			p.logger.Debug("ignoring unknown handler", "id", el.ID(), "handler", fn)
			continue
		}
		if err := h(p, &call{name: fn, this: el, args: args, ev: ev}); err != nil {
			return err
		}
	}
	return nil
}

func asMouse(ev Event) (*events.MouseEvent, bool) {
	switch ev := ev.(type) {
	case *events.MouseEvent:
		return ev, true
	case *events.PointerEvent:
		return &ev.MouseEvent, true
	}
	return nil, false
}
