// Package bridge composes the page: the document, the event translator, the
// geometry detector, the command interpreter and the session channel.
//
// Every reaction of the page (an inbound payload, a UI event, a window
// resize, focus change or unload) runs under one lock, so the document is
// only ever touched by one goroutine at a time.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codewiresh/uibridge/internal/command"
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/events"
	"github.com/codewiresh/uibridge/internal/geometry"
	"github.com/codewiresh/uibridge/internal/protocol"
	"github.com/codewiresh/uibridge/internal/transport"
)

// Channel is the session transport as seen by the page.
// *transport.Transport implements it.
type Channel interface {
	SessionID() string
	SetSessionID(id string)
	Send(msg *protocol.Message) bool
	Connect(ctx context.Context) error
	Pause()
	Resume(ctx context.Context) error
	Close() error
}

var _ Channel = (*transport.Transport)(nil)

// Config wires a Page.
type Config struct {
	Document *dom.Document
	// Images enables loadImage; nil disables it.
	Images *events.ImageLoader
	Logger *slog.Logger
}

// Page is the bridge between a document and its controller. Its methods
// are safe for concurrent use.
type Page struct {
	mu       sync.Mutex
	doc      *dom.Document
	detector *geometry.Detector
	events   *events.Translator
	interp   *command.Interpreter
	drag     *events.DragSession
	logger   *slog.Logger

	chMu    sync.RWMutex
	channel Channel
}

// New returns a page without a channel. Outbound messages are dropped
// until Attach is called.
func New(cfg Config) *Page {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	doc := cfg.Document
	if doc == nil {
		doc = dom.NewDocument()
	}
	p := &Page{doc: doc, logger: logger}
	out := outbox{p}
	p.detector = geometry.New(doc, out, logger)
	p.events = events.New(events.Config{
		Document: doc,
		Outbox:   out,
		Scanner:  p.detector,
		Images:   cfg.Images,
		Logger:   logger,
	})
	p.interp = command.New(command.Config{
		Document:   doc,
		Session:    out,
		Translator: p.events,
		Scanner:    p.detector,
		Logger:     logger,
	})
	return p
}

// Attach connects the page to its channel. Call it before the channel
// starts delivering payloads.
func (p *Page) Attach(ch Channel) {
	p.chMu.Lock()
	p.channel = ch
	p.chMu.Unlock()
}

func (p *Page) ch() Channel {
	p.chMu.RLock()
	defer p.chMu.RUnlock()
	return p.channel
}

// outbox routes translator, detector and interpreter traffic to the
// attached channel. It never takes the page lock: asynchronous loads send
// through it while the page may be busy.
type outbox struct{ p *Page }

func (o outbox) SessionID() string {
	if ch := o.p.ch(); ch != nil {
		return ch.SessionID()
	}
	return transport.DefaultSessionID
}

func (o outbox) SetSessionID(id string) {
	if ch := o.p.ch(); ch != nil {
		ch.SetSessionID(id)
	}
}

func (o outbox) Send(msg *protocol.Message) bool {
	if ch := o.p.ch(); ch != nil {
		return ch.Send(msg)
	}
	return false
}

// Document returns the page document. Callers must not mutate it while
// the page is live.
func (p *Page) Document() *dom.Document { return p.doc }

// Do runs fn under the page lock.
func (p *Page) Do(fn func(doc *dom.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// HandlePayload executes an inbound payload. Command failures are logged
// and never end the session.
func (p *Page) HandlePayload(payload string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.interp.Execute(payload); err != nil {
		p.logger.Warn("command failed", "err", err)
	}
}

// Start reports the initial layout once the channel is open.
func (p *Page) Start(ctx context.Context) error {
	if ch := p.ch(); ch != nil {
		if err := ch.Connect(ctx); err != nil {
			return err
		}
	}
	p.Scan()
	return nil
}

// Scan runs layout change detection and returns the number of views
// reported.
func (p *Page) Scan() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detector.Scan()
}

// Resize sets the window size and rescans the layout.
func (p *Page) Resize(width, height float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.Viewport = dom.Rect{Width: width, Height: height}
	return p.detector.Scan()
}

// Focus handles the window regaining focus.
func (p *Page) Focus(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch := p.ch(); ch != nil {
		return ch.Resume(ctx)
	}
	return nil
}

// Blur handles the window losing focus.
func (p *Page) Blur() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch := p.ch(); ch != nil {
		ch.Pause()
	}
}

// Unload closes the session. Pending loads are abandoned.
func (p *Page) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drag = nil
	if ch := p.ch(); ch != nil {
		return ch.Close()
	}
	return nil
}

// Wait blocks until every pending file and image load has reported. It
// must not be called under the page lock.
func (p *Page) Wait() {
	p.events.Wait()
}

// Dragging reports whether a drag-resize is in progress.
func (p *Page) Dragging() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drag != nil
}
