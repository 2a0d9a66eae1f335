// Package geometry reports layout changes of the observable views to the
// controller.
//
// The detector keeps the last transmitted box of every view keyed by
// element id. A scan compares each rendered view against that record and
// batches the ones that moved or resized into a single resize message. The
// record is only updated once the batch was handed to the channel, so it
// always equals what the controller last saw.
package geometry

import (
	"log/slog"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Outbox delivers outbound messages for the current session.
type Outbox interface {
	SessionID() string
	// Send reports whether the message was handed to a live channel.
	Send(msg *protocol.Message) bool
}

// Detector is the change detector for one document. It is not safe for
// concurrent use.
type Detector struct {
	doc    *dom.Document
	out    Outbox
	logger *slog.Logger
	cache  map[string]dom.Rect
}

// New returns a detector with an empty record.
func New(doc *dom.Document, out Outbox, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		doc:    doc,
		out:    out,
		logger: logger,
		cache:  make(map[string]dom.Rect),
	}
}

// Scan reports every view whose box differs from its record and returns
// the number of views in the batch. Nothing is sent when no view changed.
func (d *Detector) Scan() int {
	var views protocol.List
	changed := make(map[string]dom.Rect)
	seen := make(map[string]bool)

	for _, el := range d.doc.Views() {
		id := el.ID()
		if id == "" || el.Truthy(dom.NoResizeAttr) {
			continue
		}
		seen[id] = true
		rect := el.BoundingRect()
		if rect.Empty() {
			continue
		}
		if last, ok := d.cache[id]; ok && last == rect {
			continue
		}
		changed[id] = rect
		views = append(views, viewMessage(id, rect, el.Scroll))
	}

	for id := range d.cache {
		if !seen[id] {
			delete(d.cache, id)
		}
	}

	if len(views) == 0 {
		return 0
	}

	msg := protocol.New("resize").
		Put("session", protocol.Text(d.out.SessionID())).
		Put("views", views)
	if !d.out.Send(msg) {
		d.logger.Debug("resize batch dropped", "views", len(views))
		return 0
	}
	for id, rect := range changed {
		d.cache[id] = rect
	}
	return len(views)
}

func viewMessage(id string, r dom.Rect, s dom.Scroll) *protocol.Message {
	return protocol.New("view").
		Put("id", protocol.Text(id)).
		Put("x", protocol.Float(r.Left)).
		Put("y", protocol.Float(r.Top)).
		Put("width", protocol.Float(r.Width)).
		Put("height", protocol.Float(r.Height)).
		Put("scroll-x", protocol.Float(s.X)).
		Put("scroll-y", protocol.Float(s.Y)).
		Put("scroll-width", protocol.Float(s.Width)).
		Put("scroll-height", protocol.Float(s.Height))
}
