// Package events translates UI events raised on the page into protocol
// messages for the controller.
//
// Every handler encodes the event, hands it to the outbox and stops the
// event's propagation. Handlers that may move or resize views finish with a
// geometry scan.
package events

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Outbox delivers outbound messages for the current session. It must be
// safe for concurrent use: file and image loads report from their own
// goroutines.
type Outbox interface {
	SessionID() string
	Send(msg *protocol.Message) bool
}

// Scanner re-runs layout change detection.
type Scanner interface {
	Scan() int
}

// Event carries the state shared by every UI event.
type Event struct {
	// TimeStamp is milliseconds since page load.
	TimeStamp float64

	stopped   bool
	prevented bool
}

// StopPropagation keeps the event from reaching ancestor handlers.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault suppresses the host's default action.
func (e *Event) PreventDefault() { e.prevented = true }

// Stopped reports whether propagation was stopped.
func (e *Event) Stopped() bool { return e.stopped }

// DefaultPrevented reports whether the default action was suppressed.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Base returns the shared event state.
func (e *Event) Base() *Event { return e }

// Modifiers is the modifier key state of an input event.
type Modifiers struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

func (m Modifiers) addTo(msg *protocol.Message) {
	msg.Add("ctrlKey", protocol.Flag(m.Ctrl)).
		Add("shiftKey", protocol.Flag(m.Shift)).
		Add("altKey", protocol.Flag(m.Alt)).
		Add("metaKey", protocol.Flag(m.Meta))
}

// Config wires a Translator.
type Config struct {
	Document *dom.Document
	Outbox   Outbox
	Scanner  Scanner
	// Images probes images for loadImage; nil disables image loading.
	Images *ImageLoader
	Logger *slog.Logger
}

// Translator turns UI events into outbound messages. Apart from the
// asynchronous file and image loads it must be driven from one goroutine
// at a time, the one that owns the document.
type Translator struct {
	doc     *dom.Document
	out     Outbox
	scanner Scanner
	images  *ImageLoader
	logger  *slog.Logger

	loads sync.WaitGroup
}

// New returns a Translator.
func New(cfg Config) *Translator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		doc:     cfg.Document,
		out:     cfg.Outbox,
		scanner: cfg.Scanner,
		images:  cfg.Images,
		logger:  logger,
	}
}

// Wait blocks until every pending file and image load has reported.
func (t *Translator) Wait() {
	t.loads.Wait()
}

// Scan runs layout change detection when a scanner is configured.
func (t *Translator) Scan() {
	if t.scanner != nil {
		t.scanner.Scan()
	}
}

func (t *Translator) message(tag string) *protocol.Message {
	return protocol.New(tag).Put("session", protocol.Text(t.out.SessionID()))
}

func (t *Translator) elementMessage(tag string, el *dom.Element) *protocol.Message {
	return t.message(tag).Add("id", protocol.Text(el.ID()))
}

func (t *Translator) send(msg *protocol.Message) {
	if !t.out.Send(msg) {
		t.logger.Debug("event dropped", "tag", msg.Tag)
	}
}

// scrollContainer returns the nearest ancestor whose content overflows,
// falling back to the parent.
func scrollContainer(el *dom.Element) *dom.Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.Scroll.Overflows() {
			return p
		}
	}
	return el.Parent()
}

// relativePoint converts client coordinates to coordinates relative to el.
func relativePoint(el *dom.Element, clientX, clientY float64) (x, y float64) {
	x, y = clientX, clientY
	if c := scrollContainer(el); c != nil {
		x += c.Scroll.X
		y += c.Scroll.Y
	}
	for e := el; e != nil; e = e.Parent() {
		x -= e.Offset.Left
		y -= e.Offset.Top
	}
	return x, y
}

// itemNumber extracts n from an item id of the form <list>-<n>.
func itemNumber(id string) (int, bool) {
	_, rest, ok := strings.Cut(id, "-")
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
